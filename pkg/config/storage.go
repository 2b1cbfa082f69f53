package config

import "time"

// StorageConfig selects the file backend and the document store backend
type StorageConfig struct {
	Mode      string // "local" or "s3"
	UploadDir string
	AWSRegion string
	AWSBucket string
	S3Prefix  string

	DocStore string // "postgres" or "memory"
	// ChangeFeed is "redis" to fan changes out across replicas, "local" otherwise
	ChangeFeed       string
	SubscriberBuffer int
}

type DocGenConfig struct {
	// ChromeEnabled renders real PDFs through headless Chrome. When false documents are stored as HTML.
	ChromeEnabled bool
	ChromePath    string
	Timeout       time.Duration
	CompanyName   string
	CompanyAddr   string
	SignatoryName string
	SignatoryRole string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:             getEnv("STORAGE_MODE", "local"),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		AWSRegion:        getEnv("AWS_REGION", "ap-south-1"),
		AWSBucket:        getEnv("AWS_BUCKET", "hireline-documents"),
		S3Prefix:         getEnv("S3_PREFIX", ""),
		DocStore:         getEnv("DOCSTORE_MODE", "postgres"),
		ChangeFeed:       getEnv("CHANGE_FEED", "redis"),
		SubscriberBuffer: getEnvInt("CHANGE_FEED_BUFFER", 64),
	}
}

func loadDocGenConfig() DocGenConfig {
	return DocGenConfig{
		ChromeEnabled: getEnvBool("DOCGEN_CHROME_ENABLED", true),
		ChromePath:    getEnv("DOCGEN_CHROME_PATH", ""),
		Timeout:       getEnvDuration("DOCGEN_TIMEOUT", 30*time.Second),
		CompanyName:   getEnv("COMPANY_NAME", "Hireline Staffing Pvt. Ltd."),
		CompanyAddr:   getEnv("COMPANY_ADDRESS", ""),
		SignatoryName: getEnv("SIGNATORY_NAME", "HR Manager"),
		SignatoryRole: getEnv("SIGNATORY_ROLE", "Human Resources"),
	}
}
