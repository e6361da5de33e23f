package rekognition

// Config holds configuration for the AWS Rekognition detector
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// EyeBoxRatio is the side of the square eye box built around each eye
	// landmark, as a fraction of the face width.
	EyeBoxRatio float64
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:      "us-east-1",
		EyeBoxRatio: 0.25,
	}
}
