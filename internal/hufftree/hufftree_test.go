// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package hufftree

import (
	"errors"
	"maps"
	"math/rand/v2"
	"testing"

	"github.com/elliotnunn/huffbin/internal/bitpack"
	"github.com/elliotnunn/huffbin/internal/freq"
)

func TestKnownCodes(t *testing.T) {
	cases := []struct {
		in   string
		want CodeTable
	}{
		{"aaab", CodeTable{'_': "00", 'a': "1", 'b': "01"}},
		{"abracadabra", CodeTable{'_': "1010", 'a': "0", 'b': "110", 'c': "1011", 'd': "100", 'r': "111"}},
		{"mississippi", CodeTable{'_': "1000", 'i': "11", 'm': "1001", 'p': "101", 's': "0"}},
		{"hello, world", CodeTable{
			' ': "1001", ',': "1100", '_': "1000", 'd': "1101", 'e': "1110",
			'h': "1111", 'l': "01", 'o': "101", 'r': "000", 'w': "001"}},
		{"", CodeTable{'_': "0"}},
		{"____", CodeTable{'_': "0"}},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got := Build(freq.Count([]byte(c.in))).Codes()
			if !maps.Equal(got, c.want) {
				t.Errorf("got %q want %q", got, c.want)
			}
		})
	}
}

func TestTwoLeaves(t *testing.T) {
	// without the fallback symbol, two leaves get one bit each
	tr := Build(freq.Table{'a': 3, 'b': 1})
	want := CodeTable{'a': "1", 'b': "0"}
	if got := tr.Codes(); !maps.Equal(got, want) {
		t.Errorf("got %q want %q", got, want)
	}
	if root := tr.Node(tr.Root()); root.Freq != 4 || root.Leaf {
		t.Errorf("root is %+v", root)
	}
}

func TestSingleLeaf(t *testing.T) {
	tr := Build(freq.Table{'x': 9})
	root := tr.Node(tr.Root())
	if root.Leaf || root.One != none || root.Zero == none {
		t.Fatalf("single-leaf root should have only a zero child: %+v", root)
	}
	leaf := tr.Node(root.Zero)
	if !leaf.Leaf || leaf.Symbol != 'x' || leaf.Path != "0" {
		t.Errorf("bad leaf %+v", leaf)
	}

	tr2, err := Reconstruct(tr.Leaves())
	if err != nil {
		t.Fatal(err)
	}
	if !maps.Equal(tr2.Codes(), tr.Codes()) {
		t.Errorf("reconstructed %q, built %q", tr2.Codes(), tr.Codes())
	}
}

func TestTieBreakIsOrderDependent(t *testing.T) {
	a := BuildOrdered([]freq.Entry{{Symbol: 'x', Count: 1}, {Symbol: 'y', Count: 1}, {Symbol: 'z', Count: 2}})
	b := BuildOrdered([]freq.Entry{{Symbol: 'y', Count: 1}, {Symbol: 'x', Count: 1}, {Symbol: 'z', Count: 2}})
	if maps.Equal(a.Codes(), b.Codes()) {
		t.Error("swapping equal-frequency seeds should swap their codes")
	}
	if a.Codes()['x'] != "10" || b.Codes()['x'] != "11" {
		t.Errorf("got %q and %q", a.Codes(), b.Codes())
	}
}

func TestTreeProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(22, 22))
	for range 100 {
		data := make([]byte, rng.IntN(3000))
		alphabet := rng.IntN(256) + 1
		for i := range data {
			data[i] = byte(rng.IntN(alphabet))
		}
		tab := freq.Count(data)
		tr := Build(tab)

		leaves := tr.Leaves()
		if len(leaves) != tab.Distinct() {
			t.Fatalf("%d leaves for %d symbols", len(leaves), tab.Distinct())
		}
		var sum int64
		for _, l := range leaves {
			sum += l.Freq
		}
		if sum != int64(len(data)) {
			t.Fatalf("leaf frequencies sum to %d, input is %d", sum, len(data))
		}
		if tr.Node(tr.Root()).Freq != sum {
			t.Fatalf("root frequency %d, leaf sum %d", tr.Node(tr.Root()).Freq, sum)
		}
		if len(leaves) > 1 {
			for i := range tr.Len() {
				n := tr.Node(i)
				if !n.Leaf && (n.Zero == none || n.One == none) {
					t.Fatalf("internal node %d lacks a child", i)
				}
			}
		}

		codes := tr.Codes()
		if !codes.PrefixFree() {
			t.Fatalf("codes are not prefix-free: %q", codes)
		}
		tr2, err := Reconstruct(leaves)
		if err != nil {
			t.Fatal(err)
		}
		if !maps.Equal(tr2.Codes(), codes) {
			t.Fatal("reconstruction gave different codes")
		}
	}
}

func TestReconstructErrors(t *testing.T) {
	cases := []struct {
		name   string
		leaves []Leaf
		want   error
	}{
		{"none", nil, ErrEmpty},
		{"duplicate symbol", []Leaf{{Symbol: 'a', Path: "0"}, {Symbol: 'a', Path: "1"}}, ErrCollision},
		{"empty path", []Leaf{{Symbol: 'a', Path: ""}, {Symbol: 'b', Path: "1"}}, ErrCollision},
		{"bad digit", []Leaf{{Symbol: 'a', Path: "0"}, {Symbol: 'b', Path: "2"}}, ErrCollision},
		{"through leaf", []Leaf{{Symbol: 'a', Path: "0"}, {Symbol: 'b', Path: "01"}}, ErrCollision},
		{"onto internal", []Leaf{{Symbol: 'a', Path: "01"}, {Symbol: 'b', Path: "0"}}, ErrCollision},
		{"same path", []Leaf{{Symbol: 'a', Path: "1"}, {Symbol: 'b', Path: "1"}}, ErrCollision},
		{"incomplete", []Leaf{{Symbol: 'a', Path: "0"}, {Symbol: 'b', Path: "10"}}, ErrIncomplete},
		{"lonely one", []Leaf{{Symbol: 'a', Path: "1"}}, ErrIncomplete},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Reconstruct(c.leaves)
			if !errors.Is(err, c.want) {
				t.Errorf("got %v want %v", err, c.want)
			}
		})
	}
}

func TestEncodeFallback(t *testing.T) {
	var p bitpack.Packer
	n, err := Encode(&p, []byte("abca"), CodeTable{'a': "0", '_': "1"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("substituted %d, want 2", n)
	}
	payload, padding := p.Flush()
	if len(payload) != 1 || payload[0] != 0x60 || padding != 4 {
		t.Errorf("got %x pad %d", payload, padding)
	}
}

func TestEncodeGap(t *testing.T) {
	var p bitpack.Packer
	_, err := Encode(&p, []byte("abc"), CodeTable{'a': "0", 'b': "1"})
	if !errors.Is(err, ErrEncodingGap) {
		t.Errorf("got %v", err)
	}

	// no fallback is fine as long as nothing needs it
	var q bitpack.Packer
	if _, err := Encode(&q, []byte("abba"), CodeTable{'a': "0", 'b': "1"}); err != nil {
		t.Error(err)
	}
}

func TestPrefixFree(t *testing.T) {
	cases := []struct {
		c    CodeTable
		want bool
	}{
		{CodeTable{'a': "0", 'b': "10", 'c': "11"}, true},
		{CodeTable{'a': "0", 'b': "01"}, false},
		{CodeTable{'a': "10", 'b': "0", 'c': "101"}, false},
		{CodeTable{'a': "1", 'b': "1"}, false},
		{CodeTable{'a': ""}, false},
	}
	for _, c := range cases {
		if got := c.c.PrefixFree(); got != c.want {
			t.Errorf("%q: got %v", c.c, got)
		}
	}
}

func TestBookValidate(t *testing.T) {
	b := NewBook(freq.Count([]byte("abracadabra")))
	if err := b.Validate(); err != nil {
		t.Fatal(err)
	}

	swapped := maps.Clone(b.Codes)
	swapped['a'], swapped['b'] = swapped['b'], swapped['a']
	if err := (Book{b.Frequencies, swapped}).Validate(); !errors.Is(err, ErrInconsistent) {
		t.Errorf("swapped codes: got %v", err)
	}
	if err := (Book{nil, swapped}).Validate(); err != nil {
		t.Errorf("codes alone are still a valid tree: %v", err)
	}

	broken := maps.Clone(b.Codes)
	broken['a'] = "1"
	if err := (Book{nil, broken}).Validate(); !errors.Is(err, ErrCollision) {
		t.Errorf("overlapping codes: got %v", err)
	}
}
