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

package util

import (
	"bytes"
	"testing"
)

func TestBufferStream(t *testing.T) {
	var bs BufferStream

	if n, err := bs.Write([]byte("hello ")); n != 6 || err != nil {
		t.Fatalf("Write returned (%v, %v)", n, err)
	}

	if n, err := bs.Write([]byte("world")); n != 5 || err != nil {
		t.Fatalf("Write returned (%v, %v)", n, err)
	}

	if bs.Len() != 11 {
		t.Errorf("Len() = %v, expected 11", bs.Len())
	}

	buf := make([]byte, 6)

	if n, err := bs.Read(buf); n != 6 || err != nil {
		t.Fatalf("Read returned (%v, %v)", n, err)
	}

	if bytes.Equal(buf, []byte("hello ")) == false {
		t.Errorf("Read %q, expected %q", buf, "hello ")
	}

	if bs.Offset() != 6 {
		t.Errorf("Offset() = %v, expected 6", bs.Offset())
	}

	// short final read
	big := make([]byte, 100)

	if n, _ := bs.Read(big); n != 5 {
		t.Errorf("Read %v bytes, expected 5", n)
	}

	if err := bs.SetOffset(0); err != nil {
		t.Errorf("SetOffset(0) failed: %v", err)
	}

	if err := bs.SetOffset(100); err == nil {
		t.Errorf("SetOffset past the end must fail")
	}

	bs.Close()

	if _, err := bs.Write([]byte("x")); err == nil {
		t.Errorf("Write after Close must fail")
	}

	if _, err := bs.Read(buf); err == nil {
		t.Errorf("Read after Close must fail")
	}
}
