package checkpoint

import (
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"os"

	"github.com/riverrun/chessrl/codec"
	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/network"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// payloadFormat is the on-disk framing version. A file written under a
// different framing is refused on load rather than reinterpreted.
const payloadFormat = 1

// layerWeights is the gob-encodable shape of one learnable tensor: a
// flat backing array plus the shape needed to reconstitute it.
type layerWeights struct {
	Shape []int
	Data  []float64
}

// netShape is the subset of network.Config that is both
// gob-encodable (network.Config carries function-typed Init and
// Activation fields, which gob cannot serialize) and meaningful to
// compatibility-check on load.
type netShape struct {
	Features  int
	Outputs   int
	BatchSize int
	Hidden    []int
	DoubleDQN bool

	// Revision is the state-encoding revision the weights were trained
	// against; weights trained under one encoding are meaningless under
	// another, so a mismatch is refused on load.
	Revision int
}

// payload is the full on-disk representation of one checkpoint's
// weights: gob-encoded, with a framing version, a shape header and an
// integrity digest so loads can refuse a snapshot whose framing,
// layer shapes or weight bytes no longer match what was written.
type payload struct {
	Format int
	Shape  netShape
	Digest uint64 // FNV-1a over every layer's flattened weights
	Layers []layerWeights
}

func shapeOf(w *network.Wrapper) netShape {
	cfg := w.Config()
	return netShape{
		Features:  cfg.Features,
		Outputs:   cfg.Outputs,
		BatchSize: cfg.BatchSize,
		Hidden:    append([]int(nil), cfg.Hidden...),
		DoubleDQN: cfg.DoubleDQN,
		Revision:  int(codec.RevisionV1),
	}
}

// digestLayers hashes every layer's flattened weights, in order, so a
// truncated or bit-flipped payload fails validation instead of loading
// silently corrupted weights.
func digestLayers(layers []layerWeights) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, l := range layers {
		for _, v := range l.Data {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}

func extractWeights(w *network.Wrapper) ([]layerWeights, error) {
	nodes := w.Learnables()
	out := make([]layerWeights, len(nodes))
	for i, n := range nodes {
		dense, ok := n.Value().(*tensor.Dense)
		if !ok {
			return nil, errkind.New("checkpoint.extractWeights", errkind.CheckpointIO,
				fmt.Errorf("learnable %d is not a dense tensor", i))
		}
		data, ok := dense.Data().([]float64)
		if !ok {
			return nil, errkind.New("checkpoint.extractWeights", errkind.CheckpointIO,
				fmt.Errorf("learnable %d does not hold float64 data", i))
		}
		out[i] = layerWeights{
			Shape: append([]int(nil), []int(dense.Shape())...),
			Data:  append([]float64(nil), data...),
		}
	}
	return out, nil
}

func restoreWeights(w *network.Wrapper, layers []layerWeights) error {
	nodes := w.Learnables()
	if len(nodes) != len(layers) {
		return errkind.New("checkpoint.restoreWeights", errkind.IncompatibleCheckpoint,
			fmt.Errorf("checkpoint has %d learnable tensors, network has %d", len(layers), len(nodes)))
	}
	for i, n := range nodes {
		t := tensor.New(tensor.WithShape(layers[i].Shape...), tensor.WithBacking(layers[i].Data))
		if err := G.Let(n, t); err != nil {
			return errkind.New("checkpoint.restoreWeights", errkind.NumericalInstability, err)
		}
	}
	return nil
}

// compatible reports whether s describes a network shape that can
// accept layers serialized against shapeOf(w).
func compatible(s netShape, w *network.Wrapper) bool {
	cfg := w.Config()
	if s.Revision != int(codec.RevisionV1) {
		return false
	}
	if s.Features != cfg.Features || s.Outputs != cfg.Outputs || len(s.Hidden) != len(cfg.Hidden) {
		return false
	}
	for i := range s.Hidden {
		if s.Hidden[i] != cfg.Hidden[i] {
			return false
		}
	}
	return true
}

// writePayload gob-encodes p to path, optionally gzip-compressed, and
// returns the resulting file size in bytes.
func writePayload(path string, compress bool, p payload) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errkind.New("checkpoint.writePayload", errkind.CheckpointIO, err)
	}
	defer f.Close()

	p.Format = payloadFormat
	p.Digest = digestLayers(p.Layers)

	var dst io.Writer = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		dst = gz
	}

	if err := gob.NewEncoder(dst).Encode(p); err != nil {
		return 0, errkind.New("checkpoint.writePayload", errkind.CheckpointIO, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return 0, errkind.New("checkpoint.writePayload", errkind.CheckpointIO, err)
		}
	}

	stat, err := os.Stat(path)
	if err != nil {
		return 0, errkind.New("checkpoint.writePayload", errkind.CheckpointIO, err)
	}
	return stat.Size(), nil
}

func readPayload(path string, compressed bool) (payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return payload{}, errkind.New("checkpoint.readPayload", errkind.CheckpointIO, err)
	}
	defer f.Close()

	var src io.Reader = f
	if compressed {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return payload{}, errkind.New("checkpoint.readPayload", errkind.CheckpointIO, err)
		}
		defer gz.Close()
		src = gz
	}

	var p payload
	if err := gob.NewDecoder(src).Decode(&p); err != nil {
		return payload{}, errkind.New("checkpoint.readPayload", errkind.CheckpointIO, err)
	}
	if p.Format != payloadFormat {
		return payload{}, errkind.New("checkpoint.readPayload", errkind.IncompatibleCheckpoint,
			fmt.Errorf("checkpoint framing version %d, this build reads %d", p.Format, payloadFormat))
	}
	if digest := digestLayers(p.Layers); digest != p.Digest {
		return payload{}, errkind.New("checkpoint.readPayload", errkind.CheckpointIO,
			fmt.Errorf("integrity digest mismatch: stored %x, computed %x", p.Digest, digest))
	}
	return p, nil
}
