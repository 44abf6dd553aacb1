// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// NPY v1.0 serialization of clip tensors.
//
// Preprocessed tensors are handed over to Python consumers as .npy files:
// magic, version, padded header dictionary, then the little-endian payload.

package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/evolution-gaming/clipprep/internal/tensor"
)

// Supported array dtypes.
const (
	DtypeFloat16 = "<f2"
	DtypeFloat32 = "<f4"
	DtypeUint8   = "<u1"
)

// Write serializes raw array data with given dtype and shape.
func Write(w io.Writer, dtype string, shape []int, data []byte) error {
	header, err := createHeader(dtype, shape)
	if err != nil {
		return fmt.Errorf("Write() creating header: %w", err)
	}

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("Write() writing header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("Write() writing payload: %w", err)
	}
	return nil
}

// WriteHalf serializes a half-precision tensor as <f2.
func WriteHalf(w io.Writer, v *tensor.HalfVideo) error {
	return Write(w, DtypeFloat16, v.Shape[:], v.Bytes())
}

// WriteFloat32 serializes a float32 tensor as <f4.
func WriteFloat32(w io.Writer, v *tensor.Video) error {
	b := make([]byte, 4*len(v.Data))
	for i, f := range v.Data {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return Write(w, DtypeFloat32, v.Shape[:], b)
}

// createHeader builds the NPY v1.0 header: the dictionary literal padded with
// spaces so that the full header length is a multiple of 16.
func createHeader(dtype string, shape []int) ([]byte, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("empty shape")
	}
	for _, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("negative dimension %d", s)
		}
	}

	var dict bytes.Buffer
	fmt.Fprintf(&dict, "{'descr': '%s', 'fortran_order': False, 'shape': (", dtype)
	for i, s := range shape {
		if i > 0 {
			dict.WriteString(", ")
		}
		fmt.Fprintf(&dict, "%d", s)
	}
	if len(shape) == 1 {
		dict.WriteString(",")
	}
	dict.WriteString(")}")

	// 10 = magic + version + 2-byte header length prefix.
	padding := (16 - (dict.Len()+10)%16) % 16

	var header bytes.Buffer
	header.Write([]byte{0x93, 'N', 'U', 'M', 'P', 'Y', 0x01, 0x00})
	if err := binary.Write(&header, binary.LittleEndian, uint16(dict.Len()+padding)); err != nil {
		return nil, err
	}
	header.Write(dict.Bytes())
	header.Write(bytes.Repeat([]byte{' '}, padding))

	return header.Bytes(), nil
}
