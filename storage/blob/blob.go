// Copyright 2024 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"io"
	"net/url"
	"strings"

	"github.com/gorse-io/seqrec/config"
	"github.com/juju/errors"
)

const (
	FilePrefix  = "file://"
	S3Prefix    = "s3://"
	GCSPrefix   = "gs://"
	AzurePrefix = "azblob://"
)

// Store is a flat namespace of named blobs. Create returns a writer and a channel
// that delivers the persistence result once the writer is closed.
type Store interface {
	Open(name string) (io.ReadCloser, error)
	Create(name string) (io.WriteCloser, chan error, error)
	List() ([]string, error)
	Remove(name string) error
}

// Open creates a store from a URL. Plain paths and file:// URLs are local directories,
// s3://bucket/prefix, gs://bucket/prefix and azblob://container/prefix are object stores
// whose credentials come from cfg.
func Open(rawURL string, cfg config.StorageConfig) (Store, error) {
	switch {
	case strings.HasPrefix(rawURL, S3Prefix):
		bucket, prefix, err := parseBucket(rawURL)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return NewS3(cfg.S3, bucket, prefix)
	case strings.HasPrefix(rawURL, GCSPrefix):
		bucket, prefix, err := parseBucket(rawURL)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return NewGCS(cfg.GCS, bucket, prefix)
	case strings.HasPrefix(rawURL, AzurePrefix):
		container, prefix, err := parseBucket(rawURL)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return NewAzureBlob(cfg.Azure, container, prefix)
	case strings.HasPrefix(rawURL, FilePrefix):
		return NewPOSIX(rawURL[len(FilePrefix):]), nil
	case strings.Contains(rawURL, "://"):
		return nil, errors.NotSupportedf("blob store %s", rawURL)
	default:
		return NewPOSIX(rawURL), nil
	}
}

func parseBucket(rawURL string) (string, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", errors.Trace(err)
	}
	if parsed.Host == "" {
		return "", "", errors.NotValidf("missing bucket in %s", rawURL)
	}
	return parsed.Host, strings.TrimPrefix(parsed.Path, "/"), nil
}

// Upload writes a blob and waits until it has been persisted.
func Upload(store Store, name string, write func(w io.Writer) error) error {
	w, done, err := store.Create(name)
	if err != nil {
		return errors.Trace(err)
	}
	if err = write(w); err != nil {
		if pw, ok := w.(*io.PipeWriter); ok {
			_ = pw.CloseWithError(err)
		} else {
			_ = w.Close()
		}
		<-done
		return errors.Trace(err)
	}
	if err = w.Close(); err != nil {
		<-done
		return errors.Trace(err)
	}
	return errors.Trace(<-done)
}
