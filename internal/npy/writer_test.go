// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package npy

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/evolution-gaming/clipprep/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_HeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, DtypeUint8, []int{2, 3}, []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	b := buf.Bytes()

	t.Run("Magic and version", func(t *testing.T) {
		assert.Equal(t, "\x93NUMPY", string(b[:6]))
		assert.Equal(t, byte(0x01), b[6])
		assert.Equal(t, byte(0x00), b[7])
	})

	t.Run("Header length aligns to 16", func(t *testing.T) {
		hlen := binary.LittleEndian.Uint16(b[8:10])
		assert.Zero(t, (int(hlen)+10)%16, "total header should be a multiple of 16")
	})

	t.Run("Dictionary contents", func(t *testing.T) {
		hlen := binary.LittleEndian.Uint16(b[8:10])
		dict := string(b[10 : 10+int(hlen)])
		assert.Contains(t, dict, "'descr': '<u1'")
		assert.Contains(t, dict, "'fortran_order': False")
		assert.Contains(t, dict, "'shape': (2, 3)")
	})

	t.Run("Payload follows header", func(t *testing.T) {
		hlen := binary.LittleEndian.Uint16(b[8:10])
		assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, b[10+int(hlen):])
	})
}

func TestWrite_1DShapeTrailingComma(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, DtypeUint8, []int{4}, []byte{0, 0, 0, 0})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "'shape': (4,)")
}

func TestWrite_Negative(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, DtypeUint8, nil, nil), "empty shape should fail")
	assert.Error(t, Write(&buf, DtypeUint8, []int{-1}, nil), "negative dimension should fail")
}

func TestWriteHalf(t *testing.T) {
	v := tensor.New([4]int{1, 1, 1, 2})
	v.Set(0, 0, 0, 0, 1)
	v.Set(0, 0, 0, 1, -0.5)

	var buf bytes.Buffer
	require.NoError(t, WriteHalf(&buf, v.ToHalf()))

	b := buf.Bytes()
	assert.Contains(t, string(b), "'descr': '<f2'")
	assert.Contains(t, string(b), "'shape': (1, 1, 1, 2)")

	// binary16 1.0 = 0x3c00, -0.5 = 0xb800.
	payload := b[len(b)-4:]
	assert.Equal(t, []byte{0x00, 0x3c, 0x00, 0xb8}, payload)
}

func TestWriteFloat32(t *testing.T) {
	v := tensor.New([4]int{1, 1, 2, 1})
	v.Set(0, 0, 0, 0, 2)
	v.Set(0, 0, 1, 0, -2)

	var buf bytes.Buffer
	require.NoError(t, WriteFloat32(&buf, v))

	b := buf.Bytes()
	assert.Contains(t, string(b), "'descr': '<f4'")

	payload := b[len(b)-8:]
	assert.Equal(t, float32(2), bitsToFloat(payload[:4]))
	assert.Equal(t, float32(-2), bitsToFloat(payload[4:]))
}

func bitsToFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
