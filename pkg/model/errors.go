package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrUnparseableInterval  = goerr.New("unparseable interval expression")
	ErrEmbeddingUnavailable = goerr.New("embeddings unavailable")
	ErrUnknownClusterMethod = goerr.New("unknown cluster method")
	ErrMemoryNotFound       = goerr.New("memory not found")
	ErrAliasNotFound        = goerr.New("alias not found")
	ErrInvalidSpace         = goerr.New("invalid embedding space")
	ErrInvalidOrder         = goerr.New("invalid sort order")
)
