//go:build windows

package speech

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// sapiDevice implements OnDevice using Windows SAPI5 via OLE.
type sapiDevice struct {
	mu    sync.Mutex
	ready chan struct{}
}

// NewPlatformDevice returns the SAPI-backed on-device synthesizer. SAPI
// populates its voice inventory synchronously, so Ready is pre-closed.
func NewPlatformDevice() (OnDevice, error) {
	ready := make(chan struct{})
	close(ready)
	return &sapiDevice{ready: ready}, nil
}

func (d *sapiDevice) Ready() <-chan struct{} { return d.ready }

func (d *sapiDevice) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ole.CoInitialize(0); err == nil {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return
	}
	defer voice.Release()

	// Purge pending speech (SVSFPurgeBeforeSpeak with empty text).
	_, _ = oleutil.CallMethod(voice, "Speak", "", 2)
}

func (d *sapiDevice) Speak(ctx context.Context, u Utterance) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ole.CoInitialize(0); err == nil {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return fmt.Errorf("failed to create SAPI.SpVoice: %w", err)
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return fmt.Errorf("QueryInterface SpVoice failed: %w", err)
	}
	defer voice.Release()

	if u.VoiceID != "" {
		d.setVoiceByID(voice, u.VoiceID)
	}

	// SAPI rate runs -10..10 around normal speed; the utterance rate is a
	// multiplier around 1.0.
	sapiRate := int32((u.Rate - 1.0) * 10)
	_, _ = oleutil.PutProperty(voice, "Rate", sapiRate)
	if u.Volume > 0 {
		_, _ = oleutil.PutProperty(voice, "Volume", int32(u.Volume*100))
	}

	if _, err := oleutil.CallMethod(voice, "Speak", u.Text, 0); err != nil {
		return fmt.Errorf("Speak failed: %w", err)
	}
	return nil
}

func (d *sapiDevice) Voices(ctx context.Context) ([]Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ole.CoInitialize(0); err == nil {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return nil, err
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return nil, err
	}
	defer voice.Release()

	tokensVar, err := oleutil.CallMethod(voice, "GetVoices")
	if err != nil {
		tokensVar, err = oleutil.GetProperty(voice, "Voices")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voices collection: %w", err)
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return nil, fmt.Errorf("voices collection is nil")
	}
	defer tokens.Release()

	var voices []Voice
	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()

		idVar, idErr := oleutil.CallMethod(item, "GetId")
		descVar, descErr := oleutil.CallMethod(item, "GetDescription", int32(0))
		langVar, _ := oleutil.CallMethod(item, "GetAttribute", "Language")

		if idErr == nil && descErr == nil && idVar != nil && descVar != nil {
			voice := Voice{ID: idVar.ToString(), Name: descVar.ToString()}
			if langVar != nil {
				voice.Language = langVar.ToString()
			}
			voices = append(voices, voice)
		}
		return nil
	})

	return voices, nil
}

func (d *sapiDevice) setVoiceByID(voice *ole.IDispatch, voiceID string) {
	tokensVar, err := oleutil.CallMethod(voice, "GetVoices", "", "")
	if err != nil {
		return
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return
	}
	defer tokens.Release()

	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()
		idVar, _ := oleutil.CallMethod(item, "GetId")
		if idVar != nil && idVar.ToString() == voiceID {
			_, _ = oleutil.PutPropertyRef(voice, "Voice", item)
		}
		return nil
	})
}
