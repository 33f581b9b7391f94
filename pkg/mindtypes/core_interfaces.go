// Package mindtypes defines core architectural interfaces for MindMend.
// This file contains the storage and service interfaces shared across packages.
package mindtypes

import "errors"

// ErrKeyNotFound is returned by KVStore.Get when no record exists under the key.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is the durable key-value store provided by the host environment.
type KVStore interface {
	// Get returns the bytes stored under key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous record.
	Set(key string, value []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// Service defines the interface for MindMend services registered at startup.
type Service interface {
	Name() string
	Initialize() error
}
