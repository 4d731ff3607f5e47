package sandbox

// This file hand-assembles a minimal WebAssembly module at test time,
// byte by byte per the binary format, rather than shipping a prebuilt
// .wasm fixture. It stands in for the original's testMain.wasm: a guest
// that implements every required export as a no-op except getPixelVal,
// which always reports opaque red (0xFFFF0000), so the lifecycle test
// below can assert on tick()'s effect on the rendered frame without a
// wasm toolchain in this repo.

const (
	wasmValI32 = 0x7F
	wasmValF32 = 0x7D
)

// uleb128 encodes v as unsigned LEB128.
func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

// sleb128 encodes v as signed LEB128, per the algorithm in the WebAssembly
// spec appendix.
func sleb128(v int32) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func wasmVec(entries ...[]byte) []byte {
	out := uleb128(uint32(len(entries)))
	for _, e := range entries {
		out = append(out, e...)
	}
	return out
}

func wasmName(s string) []byte {
	out := uleb128(uint32(len(s)))
	return append(out, s...)
}

func wasmSection(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb128(uint32(len(content)))...)
	return append(out, content...)
}

func wasmFuncType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, uleb128(uint32(len(params)))...)
	out = append(out, params...)
	out = append(out, uleb128(uint32(len(results)))...)
	return append(out, results...)
}

// wasmFuncBody wraps instrs (which must already end in 0x0B) with an empty
// local-declarations vector and the body's own length prefix.
func wasmFuncBody(instrs []byte) []byte {
	body := append([]byte{0x00}, instrs...)
	out := uleb128(uint32(len(body)))
	return append(out, body...)
}

// buildAllRedGuestModule returns a complete wasm binary exporting the six
// functions sandbox.requiredExports names. Every export but getPixelVal is
// a no-op; getPixelVal ignores its (stripIdx, pixelIdx) arguments and
// always returns the i32 bit pattern 0xFFFF0000 (opaque red, per
// decodeARGB).
func buildAllRedGuestModule() []byte {
	typeVoid := wasmFuncType(nil, nil)                                                           // initLayoutDone, tick
	typeSetNumStrips := wasmFuncType([]byte{wasmValI32}, nil)                                    // initLayoutSetNumStrips
	typeSetStripLen := wasmFuncType([]byte{wasmValI32, wasmValI32}, nil)                         // initLayoutSetStripLen
	typeSetPixelLoc := wasmFuncType([]byte{wasmValI32, wasmValI32, wasmValF32, wasmValF32}, nil) // initLayoutSetPixelLoc
	typeGetPixelVal := wasmFuncType([]byte{wasmValI32, wasmValI32}, []byte{wasmValI32})          // getPixelVal

	typeSection := wasmSection(1, wasmVec(typeVoid, typeSetNumStrips, typeSetStripLen, typeSetPixelLoc, typeGetPixelVal))

	// Function indices 0..5, in requiredExports order, referencing the
	// type indices declared above (1, 2, 3, 0, 0, 4).
	funcSection := wasmSection(3, wasmVec(
		uleb128(1),
		uleb128(2),
		uleb128(3),
		uleb128(0),
		uleb128(0),
		uleb128(4),
	))

	exportEntry := func(name string, funcIdx uint32) []byte {
		out := wasmName(name)
		out = append(out, 0x00) // export kind: func
		return append(out, uleb128(funcIdx)...)
	}
	exportSection := wasmSection(7, wasmVec(
		exportEntry("initLayoutSetNumStrips", 0),
		exportEntry("initLayoutSetStripLen", 1),
		exportEntry("initLayoutSetPixelLoc", 2),
		exportEntry("initLayoutDone", 3),
		exportEntry("tick", 4),
		exportEntry("getPixelVal", 5),
	))

	noop := wasmFuncBody([]byte{0x0B}) // just `end`

	getPixelValBody := append([]byte{0x41}, sleb128(-65536)...) // i32.const 0xFFFF0000
	getPixelValBody = append(getPixelValBody, 0x0B)             // end
	getPixelVal := wasmFuncBody(getPixelValBody)

	codeSection := wasmSection(10, wasmVec(noop, noop, noop, noop, noop, getPixelVal))

	module := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00} // magic + version 1
	module = append(module, typeSection...)
	module = append(module, funcSection...)
	module = append(module, exportSection...)
	module = append(module, codeSection...)
	return module
}
