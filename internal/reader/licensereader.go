package reader

// licenseReader implements a .license file: its raw text is attached to the
// owning package as documentation metadata (SPEC_FULL.md §6, alongside the
// README.md text the pipeline already collects per directory).
type licenseReader struct {
	NoopFileReader
}

func newLicenseReader(*Context) (FileReader, error) {
	return &licenseReader{}, nil
}

func (licenseReader) ReadSyntaxRules(ctx *Context) error {
	ctx.Pkg.SetLicense(ctx.Content)
	return nil
}
