package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testManifest struct {
	Version   uint64            `json:"version"`
	Table     string            `json:"table"`
	Dimension int               `json:"dimension"`
	Stats     map[string]int64  `json:"stats"`
	Labels    map[string]string `json:"labels,omitempty"`
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecs_CrossCompatible(t *testing.T) {
	in := testManifest{
		Version:   3,
		Table:     "tables/celldb-000003.cdb",
		Dimension: 5,
		Stats:     map[string]int64{"rows": 3, "entries": 11},
	}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			t.Run(enc.Name()+"->"+dec.Name(), func(t *testing.T) {
				var out testManifest
				require.NoError(t, dec.Unmarshal(MustMarshal(enc, in), &out))
				assert.Equal(t, in, out)
			})
		}
	}
}

func TestMarshalIndent(t *testing.T) {
	b, err := MarshalIndent(nil, map[string]int{"rows": 3})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"rows\": 3\n}", strings.TrimSpace(string(b)))
}

func BenchmarkCodec_Marshal_Manifest(b *testing.B) {
	m := testManifest{Version: 42, Table: "tables/celldb-000042.cdb", Dimension: 33694, Stats: map[string]int64{"rows": 10000}}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b.Run(c.Name(), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := c.Marshal(m); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
