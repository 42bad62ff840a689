// Package s3 implements blobstore.Store on Amazon S3.
//
// Uploads run through the SDK's transfer manager and can be throttled
// with an optional rate limiter, so bulk artifact writes at the end of
// a tuning run do not saturate shared egress.
package s3
