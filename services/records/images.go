// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package records

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	bstore "github.com/AleutianAI/FarminAI/pkg/storage/badger"
)

// ImageCategory groups disease reference images.
type ImageCategory string

const (
	CategoryCrop   ImageCategory = "crop"
	CategoryCattle ImageCategory = "cattle"
)

// ErrInvalidImage is returned for a blank name, unknown category or empty
// image.
var ErrInvalidImage = errors.New("invalid image")

// ParseImageCategory normalizes a category name.
func ParseImageCategory(s string) (ImageCategory, error) {
	switch ImageCategory(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryCrop:
		return CategoryCrop, nil
	case CategoryCattle:
		return CategoryCattle, nil
	}
	return "", fmt.Errorf("%w: category must be crop or cattle, got %q", ErrInvalidImage, s)
}

// ImageMeta describes a stored image without its bytes.
type ImageMeta struct {
	ID          uint64        `json:"id"`
	Name        string        `json:"name"`
	Category    ImageCategory `json:"category"`
	Description string        `json:"description"`
	ContentType string        `json:"content_type"`
	Size        int           `json:"size"`
	CreatedAt   time.Time     `json:"created_at"`
}

// DiseaseImage is an image with its bytes.
type DiseaseImage struct {
	ImageMeta
	Data []byte `json:"-"`
}

// NewImage is the input of InsertImage.
type NewImage struct {
	Name        string
	Category    string
	Description string
	ContentType string
	Data        []byte
}

const (
	imageSequence   = "images"
	imageMetaPrefix = "image/meta/"
	imageDataPrefix = "image/data/"
)

// ImageStore keeps disease reference images in BadgerDB. Metadata and bytes
// live under separate keys so listing never reads image data.
type ImageStore struct {
	db  *bstore.DB
	now func() time.Time
}

// NewImageStore wraps an open database.
func NewImageStore(db *bstore.DB) *ImageStore {
	return &ImageStore{db: db, now: time.Now}
}

// InsertImage stores an image and returns its metadata with the new id.
func (s *ImageStore) InsertImage(ctx context.Context, img NewImage) (ImageMeta, error) {
	name := strings.TrimSpace(img.Name)
	if name == "" {
		return ImageMeta{}, fmt.Errorf("%w: name must not be empty", ErrInvalidImage)
	}
	category, err := ParseImageCategory(img.Category)
	if err != nil {
		return ImageMeta{}, err
	}
	if len(img.Data) == 0 {
		return ImageMeta{}, fmt.Errorf("%w: image data must not be empty", ErrInvalidImage)
	}

	id, err := s.db.NextID(imageSequence)
	if err != nil {
		return ImageMeta{}, err
	}
	meta := ImageMeta{
		ID:          id,
		Name:        name,
		Category:    category,
		Description: strings.TrimSpace(img.Description),
		ContentType: img.ContentType,
		Size:        len(img.Data),
		CreatedAt:   s.now().UTC(),
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return ImageMeta{}, fmt.Errorf("encode image metadata: %w", err)
	}

	err = s.db.Update(ctx, func(txn *badger.Txn) error {
		if err := txn.Set(imageKey(imageMetaPrefix, id), encoded); err != nil {
			return err
		}
		return txn.Set(imageKey(imageDataPrefix, id), img.Data)
	})
	if err != nil {
		return ImageMeta{}, fmt.Errorf("store image %d: %w", id, err)
	}
	return meta, nil
}

// ListImages returns image metadata, newest first. An empty category lists
// every image.
func (s *ImageStore) ListImages(ctx context.Context, category string) ([]ImageMeta, error) {
	var filter ImageCategory
	if strings.TrimSpace(category) != "" {
		c, err := ParseImageCategory(category)
		if err != nil {
			return nil, err
		}
		filter = c
	}

	out := []ImageMeta{}
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(imageMetaPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the last key sharing the prefix.
		seek := append([]byte(imageMetaPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(imageMetaPrefix)); it.Next() {
			var meta ImageMeta
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &meta)
			}); err != nil {
				return fmt.Errorf("decode image metadata: %w", err)
			}
			if filter != "" && meta.Category != filter {
				continue
			}
			out = append(out, meta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetImage returns an image and its bytes, or ErrNotFound.
func (s *ImageStore) GetImage(ctx context.Context, id uint64) (DiseaseImage, error) {
	var img DiseaseImage
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(imageKey(imageMetaPrefix, id))
		if err != nil {
			return err
		}
		if err := item.Value(func(v []byte) error {
			return json.Unmarshal(v, &img.ImageMeta)
		}); err != nil {
			return err
		}
		item, err = txn.Get(imageKey(imageDataPrefix, id))
		if err != nil {
			return err
		}
		img.Data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return DiseaseImage{}, fmt.Errorf("image %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return DiseaseImage{}, fmt.Errorf("get image %d: %w", id, err)
	}
	return img, nil
}

// DeleteImage removes an image, or returns ErrNotFound.
func (s *ImageStore) DeleteImage(ctx context.Context, id uint64) error {
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(imageKey(imageMetaPrefix, id)); err != nil {
			return err
		}
		if err := txn.Delete(imageKey(imageMetaPrefix, id)); err != nil {
			return err
		}
		return txn.Delete(imageKey(imageDataPrefix, id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("image %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete image %d: %w", id, err)
	}
	return nil
}

// imageKey appends the big-endian id so keys sort by id.
func imageKey(prefix string, id uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}
