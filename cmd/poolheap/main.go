package main

import (
	"fmt"
	"os"

	"poolheap/pkg/allocator"
	"poolheap/pkg/cache"
	"poolheap/util/logger"
)

func main() {
	a, err := allocator.New(&allocator.Options{PoolSize: 4 << 20})
	if err != nil {
		fatal(err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.L.WithError(err).Error("failed to close allocator")
		}
	}()

	pages, err := cache.New(a, 4096, 64, "")
	if err != nil {
		fatal(err)
	}
	defer func() {
		if err := pages.Close(); err != nil {
			logger.L.WithError(err).Error("failed to close page cache")
		}
	}()

	page, err := pages.Get(0)
	if err != nil {
		fatal(err)
	}
	copy(page.Bytes(), []byte("hello from the pool allocator"))
	page.MarkDirty()

	if err := a.Validate(); err != nil {
		fatal(err)
	}

	fmt.Println(string(page.Bytes()[:29]))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
