/*
Copyright 2011-2017 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package entropy

import (
	cmix "github.com/jhorourke2/cmix"
)

// WriteVarInt writes a positive integer as a sequence of 7 bit values
// (with a continuation bit), up to 4 bytes. Returns the number of bytes
// written.
func WriteVarInt(bs cmix.OutputBitStream, value int) int {
	if bs == nil {
		panic("Invalid null bitstream parameter")
	}

	w := 0

	for {
		if value >= 128 {
			bs.WriteBits(uint64(0x80|(value&0x7F)), 8)
		} else {
			bs.WriteBits(uint64(value), 8)
		}

		more := value >= 128
		value >>= 7
		w++

		if more == false || w >= 4 {
			break
		}
	}

	return w
}

// ReadVarInt reads a positive integer written by WriteVarInt.
func ReadVarInt(bs cmix.InputBitStream) int {
	if bs == nil {
		panic("Invalid null bitstream parameter")
	}

	res := 0
	shift := uint(0)

	for {
		val := int(bs.ReadBits(8))
		res = ((val & 0x7F) << shift) | res
		more := val >= 128
		shift += 7

		if more == false || shift >= 28 {
			break
		}
	}

	return res
}
