package cpu

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzCode(f *testing.F) {
	for _, word := range []uint16{0x0000, 0x00E0, 0x00EE, 0x1234, 0x8AB4, 0xD125, 0xF965, 0xFFFF} {
		f.Add(word)
	}

	f.Fuzz(func(t *testing.T, word uint16) {
		assert := assert.New(t)

		code := Code(word)
		h, v1, v2, v3 := code.Nibbles()
		assert.Equal(code, MakeCode(h, v1, v2, v3))

		assert.Equal(v1, code.X())
		assert.Equal(v2, code.Y())
		assert.Equal(v3, code.N())
		assert.Equal(byte(word), code.KK())
		assert.Equal(word&0xFFF, code.NNN())

		op, err := code.Decode()
		text := code.String()
		if err != nil {
			assert.ErrorIs(err, ErrOpcodeDecode)
			assert.Equal(fmt.Sprintf(".word $%04x", word), text)
			return
		}

		assert.Contains(text, op.String())
		assert.NotContains(text, "CodeOp(")
	})
}

func FuzzCpu(f *testing.F) {
	for n := range 0x10 {
		f.Add(uint16(n<<12), byte(0x00), byte(0x00), false, false)
		f.Add(uint16(n<<12|0x0FFF), byte(0xFF), byte(0x01), true, true)
		f.Add(uint16(n<<12|0x0123), byte(0x80), byte(0x80), true, false)
	}

	f.Fuzz(func(t *testing.T, word uint16, vx byte, vy byte, stack bool, key bool) {
		assert := assert.New(t)

		code := Code(word)

		cp := newTestCpu(code)
		for n := range REGISTER_COUNT {
			cp.Set(byte(n), byte(0x10*n+n))
		}
		cp.Set(code.Y(), vy)
		cp.Set(code.X(), vx)
		cp.I = 0x0FFE
		cp.Delay = 3
		cp.Sound = 4
		if stack {
			cp.Push(0x0ABC)
		}
		if key {
			cp.Keypad.SetKey(vx&0xF, true)
		}

		before := cp.Registers

		// Never block on a key wait.
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := cp.Execute(ctx, code)

		code_str := fmt.Sprintf("0x%04x (%v)\nvx:%02x vy:%02x stack:%v key:%v\ncpu:%v",
			word, code, vx, vy, stack, key, cp.String())

		op, decode_err := code.Decode()

		if err != nil {
			assert.ErrorIs(err, ErrOpcode(0), code_str)
			assert.Equal(before, cp.Registers, code_str)

			switch {
			case decode_err != nil:
				assert.ErrorIs(err, ErrOpcodeDecode, code_str)
			case op == OP_RET && !stack:
				assert.ErrorIs(err, ErrStackEmpty, code_str)
			case op == OP_LD_VX_K && !key:
				assert.ErrorIs(err, context.Canceled, code_str)
			default:
				assert.NoError(err, code_str)
			}
			return
		}

		assert.NoError(decode_err, code_str)

		// Timers are only changed by Tick(), or by explicit stores.
		switch op {
		case OP_LD_DT_VX:
			assert.Equal(vx, cp.Delay, code_str)
		case OP_LD_ST_VX:
			assert.Equal(vx, cp.Sound, code_str)
		default:
			assert.Equal(byte(3), cp.Delay, code_str)
			assert.Equal(byte(4), cp.Sound, code_str)
		}

		// PC flow.
		switch op {
		case OP_JP, OP_CALL:
			assert.Equal(code.NNN()&PC_MASK, cp.PC, code_str)
		case OP_RET:
			assert.Equal(uint16(0x0ABC), cp.PC, code_str)
		case OP_JP_V0:
			assert.Equal((code.NNN()+uint16(before.V[0]))&PC_MASK, cp.PC, code_str)
		case OP_SE_BYTE, OP_SNE_BYTE, OP_SE_REG, OP_SNE_REG, OP_SKP, OP_SKNP:
			assert.Contains([]uint16{0x202, 0x204}, cp.PC, code_str)
		default:
			assert.Equal(uint16(0x202), cp.PC, code_str)
		}

		assert.Zero(cp.PC%PC_STEP, code_str)

		// Stack flow.
		switch op {
		case OP_CALL:
			top, ok := cp.Stack.Peek()
			assert.True(ok, code_str)
			assert.Equal(uint16(0x202), top, code_str)
			assert.Equal(before.Stack.Pointer+1, cp.Stack.Pointer, code_str)
		case OP_RET:
			assert.Equal(before.Stack.Pointer-1, cp.Stack.Pointer, code_str)
		default:
			assert.Equal(before.Stack, cp.Stack, code_str)
		}

		// Registers other than Vx and VF are only changed by loads.
		for n := range byte(REGISTER_COUNT) {
			if n == code.X() || n == REGISTER_FLAG {
				continue
			}
			if op == OP_LD_VX_MEM && n <= code.X() {
				continue
			}
			assert.Equal(before.V[n], cp.Get(n), fmt.Sprintf("v%x: %v", n, code_str))
		}

		// Flag register is 0 or 1 after a flag setting operation.
		switch op {
		case OP_ADD_REG, OP_SUB, OP_SUBN, OP_SHR, OP_SHL, OP_DRW:
			assert.LessOrEqual(cp.Get(REGISTER_FLAG), byte(1), code_str)
		}
	})
}
