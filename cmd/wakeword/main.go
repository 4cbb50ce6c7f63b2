// Package main is the entry point for the wake word detection CLI.
//
// Usage:
//
//	wakeword --melspectrogram-model mel.onnx --embedding-model emb.onnx \
//	         -m hey_test.onnx [-m hey_other.onnx...] --input audio.wav
package main

import (
	"fmt"
	"os"

	"github.com/blazeiburgess/openwakeword-go/cmd/wakeword/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
