//go:build windows

package input

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32           = syscall.NewLazyDLL("user32.dll")
	procSendInput    = user32.NewProc("SendInput")
	procSetCursorPos = user32.NewProc("SetCursorPos")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseEventMoveAbsolute = 0x8000
	mouseEventLeftDown     = 0x0002
	mouseEventLeftUp       = 0x0004
	mouseEventRightDown    = 0x0008
	mouseEventRightUp      = 0x0010
	mouseEventMiddleDown   = 0x0020
	mouseEventMiddleUp     = 0x0040
	mouseEventWheel        = 0x0800
	mouseEventHWheel       = 0x1000

	keyEventKeyUp   = 0x0002
	keyEventUnicode = 0x0004

	vkReturn = 0x0D
	vkTab    = 0x09
)

// mouseInput mirrors Win32's MOUSEINPUT.
type mouseInput struct {
	dx, dy    int32
	mouseData uint32
	flags     uint32
	time      uint32
	extraInfo uintptr
}

// keybdInput mirrors Win32's KEYBDINPUT.
type keybdInput struct {
	vk, scan  uint16
	flags     uint32
	time      uint32
	extraInfo uintptr
}

// input mirrors Win32's tagINPUT, a union tagged by kind. The padding
// mirrors the layout SendInput expects on 64-bit Windows: the union's
// largest member (MOUSEINPUT) is 5 fields; KEYBDINPUT and HARDWAREINPUT
// are smaller and are zero-padded by Go's struct layout here since this
// type only ever carries one of the two active variants at a time.
type input struct {
	kind uint32
	_    uint32 // alignment padding to match the real union's 8-byte boundary
	mi   mouseInput
}

type keyInputEvent struct {
	kind uint32
	_    uint32
	ki   keybdInput
	_    [8]byte // pad to the full INPUT union size; SendInput rejects a smaller cbSize
}

// WindowsPoster posts synthesized events via SendInput.
type WindowsPoster struct{}

func NewWindowsPoster() *WindowsPoster { return &WindowsPoster{} }

func (p *WindowsPoster) Click(x, y int, button string) error {
	if err := moveCursor(x, y); err != nil {
		return err
	}
	down, up, err := buttonFlags(button)
	if err != nil {
		return err
	}
	if err := sendMouseEvent(down, 0); err != nil {
		return err
	}
	time.Sleep(ButtonHoldDelay)
	return sendMouseEvent(up, 0)
}

func (p *WindowsPoster) Drag(steps []Point, stepDelay time.Duration) error {
	if len(steps) == 0 {
		return fmt.Errorf("no drag steps")
	}
	if err := moveCursor(steps[0].X, steps[0].Y); err != nil {
		return err
	}
	if err := sendMouseEvent(mouseEventLeftDown, 0); err != nil {
		return err
	}
	for _, step := range steps[1:] {
		time.Sleep(stepDelay)
		if err := moveCursor(step.X, step.Y); err != nil {
			return err
		}
	}
	return sendMouseEvent(mouseEventLeftUp, 0)
}

func (p *WindowsPoster) Wheel(x, y, deltaX, deltaY int) error {
	if err := moveCursor(x, y); err != nil {
		return err
	}
	if deltaY != 0 {
		if err := sendMouseEvent(mouseEventWheel, int32(deltaY*120)); err != nil {
			return err
		}
	}
	if deltaX != 0 {
		if err := sendMouseEvent(mouseEventHWheel, int32(deltaX*120)); err != nil {
			return err
		}
	}
	return nil
}

func (p *WindowsPoster) TypeText(text string, interval time.Duration) error {
	for i, r := range text {
		if i > 0 {
			time.Sleep(interval)
		}
		switch r {
		case '\n':
			if err := sendVKey(vkReturn); err != nil {
				return err
			}
		case '\t':
			if err := sendVKey(vkTab); err != nil {
				return err
			}
		default:
			if err := sendUnicodeRune(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func buttonFlags(button string) (down, up uint32, err error) {
	switch button {
	case ButtonLeft, "", ButtonCenter:
		return mouseEventLeftDown, mouseEventLeftUp, nil
	case ButtonRight:
		return mouseEventRightDown, mouseEventRightUp, nil
	default:
		return 0, 0, fmt.Errorf("unknown button: %s", button)
	}
}

func moveCursor(x, y int) error {
	ret, _, _ := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos failed")
	}
	return nil
}

func sendMouseEvent(flags uint32, mouseData int32) error {
	evt := input{kind: inputMouse, mi: mouseInput{flags: flags, mouseData: uint32(mouseData)}}
	ret, _, _ := procSendInput.Call(1, uintptr(unsafe.Pointer(&evt)), unsafe.Sizeof(evt))
	if ret == 0 {
		return fmt.Errorf("SendInput (mouse) failed")
	}
	return nil
}

func sendVKey(vk uint16) error {
	down := keyInputEvent{kind: inputKeyboard, ki: keybdInput{vk: vk}}
	up := keyInputEvent{kind: inputKeyboard, ki: keybdInput{vk: vk, flags: keyEventKeyUp}}
	if ret, _, _ := procSendInput.Call(1, uintptr(unsafe.Pointer(&down)), unsafe.Sizeof(down)); ret == 0 {
		return fmt.Errorf("SendInput (key down) failed")
	}
	if ret, _, _ := procSendInput.Call(1, uintptr(unsafe.Pointer(&up)), unsafe.Sizeof(up)); ret == 0 {
		return fmt.Errorf("SendInput (key up) failed")
	}
	return nil
}

func sendUnicodeRune(r rune) error {
	down := keyInputEvent{kind: inputKeyboard, ki: keybdInput{scan: uint16(r), flags: keyEventUnicode}}
	up := keyInputEvent{kind: inputKeyboard, ki: keybdInput{scan: uint16(r), flags: keyEventUnicode | keyEventKeyUp}}
	if ret, _, _ := procSendInput.Call(1, uintptr(unsafe.Pointer(&down)), unsafe.Sizeof(down)); ret == 0 {
		return fmt.Errorf("SendInput (unicode down) failed")
	}
	if ret, _, _ := procSendInput.Call(1, uintptr(unsafe.Pointer(&up)), unsafe.Sizeof(up)); ret == 0 {
		return fmt.Errorf("SendInput (unicode up) failed")
	}
	return nil
}
