package core

import (
	"errors"
	"math"
	"testing"
)

func TestStreamValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Stream
		wantErr bool
	}{
		{name: "defaults", s: DefaultStream()},
		{name: "mono", s: Stream{SampleRate: 44100, Channels: 1, MaxBlock: 64}},
		{name: "zero rate", s: Stream{Channels: 1, MaxBlock: 64}, wantErr: true},
		{name: "nan rate", s: Stream{SampleRate: math.NaN(), Channels: 1, MaxBlock: 64}, wantErr: true},
		{name: "infinite rate", s: Stream{SampleRate: math.Inf(1), Channels: 1, MaxBlock: 64}, wantErr: true},
		{name: "zero block", s: Stream{SampleRate: 44100, Channels: 1}, wantErr: true},
		{name: "too many channels", s: Stream{SampleRate: 44100, Channels: 3, MaxBlock: 64}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.s.Validate(2)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}

			if err != nil && !errors.Is(err, ErrStream) {
				t.Fatalf("error %v does not wrap ErrStream", err)
			}
		})
	}
}

func TestStreamString(t *testing.T) {
	if got := DefaultStream().String(); got != "48000 Hz x 2, 1024-frame blocks" {
		t.Fatalf("String() = %q", got)
	}
}
