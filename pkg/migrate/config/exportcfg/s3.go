package exportcfg

type S3 struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

// Enabled : export only happens when a bucket is configured
func (s *S3) Enabled() bool {
	return s.Bucket != ""
}
