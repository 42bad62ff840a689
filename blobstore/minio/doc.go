// Package minio implements blobstore.Store for MinIO and other
// S3-compatible object stores, using the native MinIO client instead
// of the AWS SDK. Useful for on-prem lab storage.
package minio
