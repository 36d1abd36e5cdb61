// Package s3blob implements the attachment store on S3. Stored objects are
// immutable; every call produces a distinct locator, so a retried upload at
// worst orphans an object.
package s3blob
