// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket provides logical bucket for kv store.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	out := make([]byte, 0, len(b)+len(k))
	return append(append(out, b...), k...)
}

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &struct {
		GetFunc
		HasFunc
		IsNotFoundFunc
	}{
		func(key []byte) ([]byte, error) { return src.Get(b.key(key)) },
		func(key []byte) (bool, error) { return src.Has(b.key(key)) },
		src.IsNotFound,
	}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return &struct {
		PutFunc
		DeleteFunc
	}{
		func(key, val []byte) error { return src.Put(b.key(key), val) },
		func(key []byte) error { return src.Delete(b.key(key)) },
	}
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{
		Getter: b.NewGetter(src),
		Putter: b.NewPutter(src),
		bucket: b,
		src:    src,
	}
}

type bucketStore struct {
	Getter
	Putter
	bucket Bucket
	src    Store
}

func (s *bucketStore) Bulk() Bulk {
	bulk := s.src.Bulk()
	return &bucketBulk{s.bucket.NewPutter(bulk), bulk}
}

func (s *bucketStore) Iterate(r Range) Iterator {
	r.Start = s.bucket.key(r.Start)
	if len(r.Limit) == 0 {
		r.Limit = util.BytesPrefix([]byte(s.bucket)).Limit
	} else {
		r.Limit = s.bucket.key(r.Limit)
	}
	return &bucketIter{s.src.Iterate(r), len(s.bucket)}
}

type bucketBulk struct {
	Putter
	bulk Bulk
}

func (b *bucketBulk) Len() int     { return b.bulk.Len() }
func (b *bucketBulk) Write() error { return b.bulk.Write() }

type bucketIter struct {
	Iterator
	prefixLen int
}

// Key strips the bucket prefix.
func (i *bucketIter) Key() []byte { return i.Iterator.Key()[i.prefixLen:] }
