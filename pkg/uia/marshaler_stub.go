//go:build !windows

package uia

import "appmcp/pkg/errs"

// Marshaler is a placeholder on non-Windows builds.
type Marshaler struct{}

// NewMarshaler returns a Marshaler whose every method reports SYSTEM_ERROR.
func NewMarshaler() (*Marshaler, error) {
	return &Marshaler{}, nil
}

func (m *Marshaler) RootElement(hwnd interface{}) (ElementRef, error) {
	return nil, errs.New(errs.SystemError, "UI Automation is only available on Windows")
}

func (m *Marshaler) Attributes(el ElementRef) (Attributes, error) {
	return Attributes{}, errs.New(errs.SystemError, "UI Automation is only available on Windows")
}

func (m *Marshaler) Children(el ElementRef) ([]ElementRef, error) {
	return nil, errs.New(errs.SystemError, "UI Automation is only available on Windows")
}

func (m *Marshaler) Invoke(el ElementRef) error {
	return errs.New(errs.SystemError, "UI Automation is only available on Windows")
}

func (m *Marshaler) SetValue(el ElementRef, text string) error {
	return errs.New(errs.SystemError, "UI Automation is only available on Windows")
}

func (m *Marshaler) IsAlive(el ElementRef) bool { return false }

func (m *Marshaler) Close() error { return nil }
