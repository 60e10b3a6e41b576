package exportcatalog

// Export is a rendered export, ready to be served as a download or written to a file.
type Export struct {
	ContentType string
	Filename    string
	Body        []byte
	Rows        int
}
