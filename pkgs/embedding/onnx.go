//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEncoder runs a BERT export locally: WordPiece tokenize, run the model,
// then mean-pool last_hidden_state over the attention mask. The session is
// not reentrant, so calls are serialized.
type ONNXEncoder struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *WordPiece
	dimensions int
	maxTokens  int
	mu         sync.Mutex
}

func NewONNXEncoder(cfg Config) (*ONNXEncoder, error) {
	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	tokenizer, err := LoadWordPiece(cfg.VocabPath)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	return &ONNXEncoder{
		session:    session,
		tokenizer:  tokenizer,
		dimensions: cfg.Dimensions,
		maxTokens:  maxTokens,
	}, nil
}

func (e *ONNXEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	ids, n := e.tokenizer.Encode(text, e.maxTokens)
	if n == 0 {
		return nil, ErrNoTokens
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqLen := int64(len(ids))
	mask := contentMask(len(ids))
	typeIDs := make([]int64, seqLen)

	shape := ort.NewShape(1, seqLen)
	inputIDs, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer inputIDs.Destroy()
	attention, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer attention.Destroy()
	tokenTypes, err := ort.NewTensor(shape, typeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer tokenTypes.Destroy()

	hidden, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seqLen, int64(e.dimensions)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer hidden.Destroy()

	e.mu.Lock()
	err = e.session.Run(
		[]ort.Value{inputIDs, attention, tokenTypes},
		[]ort.Value{hidden},
	)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return MeanPool(hidden.GetData(), mask, e.dimensions), nil
}

func (e *ONNXEncoder) Dimensions() int {
	return e.dimensions
}

func (e *ONNXEncoder) Close() error {
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}
