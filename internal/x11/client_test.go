package x11

import (
	"testing"

	"github.com/jezek/xgb/xproto"
)

func TestDecodeCardinal(t *testing.T) {
	tests := []struct {
		name   string
		prop   *Property
		want   uint32
		wantOk bool
	}{
		{
			name:   "Nil property",
			prop:   nil,
			wantOk: false,
		},
		{
			name: "Zero items with data buffer",
			prop: &Property{
				Type:     xproto.AtomCardinal,
				Format:   32,
				NumItems: 0,
				Value:    []byte{},
			},
			wantOk: false,
		},
		{
			name: "Value shorter than one item",
			prop: &Property{
				Type:     xproto.AtomCardinal,
				Format:   32,
				NumItems: 1,
				Value:    []byte{0x39, 0x05},
			},
			wantOk: false,
		},
		{
			name: "Single cardinal",
			prop: &Property{
				Type:     xproto.AtomCardinal,
				Format:   32,
				NumItems: 1,
				Value:    []byte{0x39, 0x05, 0x00, 0x00},
			},
			want:   1337,
			wantOk: true,
		},
		{
			name: "Only first item is read",
			prop: &Property{
				Type:     xproto.AtomWindow,
				Format:   32,
				NumItems: 2,
				Value:    []byte{0x01, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff},
			},
			want:   1,
			wantOk: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeCardinal(tt.prop)
			if ok != tt.wantOk {
				t.Fatalf("decodeCardinal() ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("decodeCardinal() = %d, want %d", got, tt.want)
			}
		})
	}
}
