// Package tokenizer provides a unified token-counting interface, backed by
// exact tiktoken BPE counts where a model's encoding is known and a
// character-based estimator otherwise.
package tokenizer
