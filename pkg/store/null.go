package store

import "context"

// NullStore stores nothing. Every Get is a miss.
type NullStore struct{}

func (NullStore) Get(context.Context, string) (*Room, error) { return nil, nil }
func (NullStore) Put(context.Context, *Room) error           { return nil }
func (NullStore) Delete(context.Context, string) error       { return nil }
func (NullStore) List(context.Context) ([]string, error)     { return nil, nil }
func (NullStore) Close() error                               { return nil }

var _ Store = NullStore{}
