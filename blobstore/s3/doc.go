// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	blobs := s3.NewStore(client, "my-bucket", "pages/")
//
//	tree, err := fpgist.Open(ctx, fpgist.WithPageStore(store.NewBlobStore(blobs, nil)))
//
// # Features
//
//   - Range reads for efficient partial page fetches
//   - Multipart uploads for large pages
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
