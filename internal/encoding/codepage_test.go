package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/kasa/internal/encoding"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		charset string
		want    []byte
		wantErr error
	}{
		{
			name:    "UTF8Passthrough",
			text:    "СУМА 21.00",
			charset: "utf-8",
			want:    []byte("СУМА 21.00"),
		},
		{
			name:    "EmptyCharsetIsUTF8",
			text:    "abc",
			charset: "",
			want:    []byte("abc"),
		},
		{
			name:    "CP866",
			text:    "СУМА",
			charset: "cp866",
			want:    []byte{0x91, 0x93, 0x8C, 0x80},
		},
		{
			name:    "Windows1251",
			text:    "СУМА",
			charset: "Windows-1251",
			want:    []byte{0xD1, 0xD3, 0xCC, 0xC0},
		},
		{
			name:    "UnencodableBecomesQuestionMark",
			text:    "a€b",
			charset: "cp866",
			want:    []byte("a?b"),
		},
		{
			name:    "Unsupported",
			text:    "abc",
			charset: "latin-9",
			wantErr: encoding.ErrUnsupportedCharset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encoding.Encode(tt.text, tt.charset)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_UkrainianRoundTrip(t *testing.T) {
	text := "Дякуємо за покупку!"

	for _, cs := range []string{"cp866", "windows-1251"} {
		out, err := encoding.Encode(text, cs)
		require.NoError(t, err)

		cp, err := encoding.Lookup(cs)
		require.NoError(t, err)

		back, err := cp.NewDecoder().Bytes(out)
		require.NoError(t, err)
		assert.Equal(t, text, string(back), cs)
	}
}

func TestCanonical(t *testing.T) {
	tests := map[string]string{
		"":             encoding.CharsetUTF8,
		"UTF8":         encoding.CharsetUTF8,
		"IBM866":       encoding.CharsetCP866,
		"cp1251":       encoding.CharsetWindows1251,
		"windows-1251": encoding.CharsetWindows1251,
	}

	for in, want := range tests {
		got, err := encoding.Canonical(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	cp, err := encoding.Lookup("866")
	require.NoError(t, err)
	assert.Equal(t, charmap.CodePage866, cp)
}
