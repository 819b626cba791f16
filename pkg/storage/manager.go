package storage

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/kabadi/config"
)

// Open builds the disk named by STORAGE_DISK.
func Open(ctx context.Context) (Disk, error) {
	return OpenNamed(ctx, config.StorageDefault())
}

// OpenNamed builds the named disk from config.
func OpenNamed(ctx context.Context, name string) (Disk, error) {
	switch name {
	case "local":
		return NewLocalDisk(config.StorageLocalRoot(), config.StorageURL()), nil
	case "s3":
		return NewS3Disk(ctx, S3Config{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
	case "gcs":
		return NewGCSDisk(ctx, GCSConfig{
			Bucket:          config.StorageGCSBucket(),
			CredentialsFile: config.StorageGCSCredentials(),
		})
	default:
		return nil, fmt.Errorf("storage: unsupported STORAGE_DISK %q (supported: local, s3, gcs)", name)
	}
}
