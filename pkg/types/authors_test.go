package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAuthors(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    [][]string
		wantErr error
	}{
		{
			name:  "two authors joined by and",
			input: "John Smith and Jane Q. Doe",
			want:  [][]string{{"John", "Smith"}, {"Jane", "Q.", "Doe"}},
		},
		{
			name:  "braces keep a multi-word surname together",
			input: "Jan {van der Berg}",
			want:  [][]string{{"Jan", "{van der Berg}"}},
		},
		{
			name:  "double quotes group a name part",
			input: `"Ludwig van" Beethoven`,
			want:  [][]string{{`"Ludwig van"`, "Beethoven"}},
		},
		{
			name:  "escapes inside braces are kept verbatim",
			input: `Kurt G{\"o}del`,
			want:  [][]string{{"Kurt", `G{\"o}del`}},
		},
		{
			name:  "apostrophe inside a word is not a group",
			input: "Pat O'Brien",
			want:  [][]string{{"Pat", "O'Brien"}},
		},
		{
			name:  "single quotes group at the start of a part",
			input: "'de la' Cruz",
			want:  [][]string{{"'de la'", "Cruz"}},
		},
		{
			name:  "list of strings is concatenated",
			input: []string{"A B", "C D and E F"},
			want:  [][]string{{"A", "B"}, {"C", "D"}, {"E", "F"}},
		},
		{
			name:  "explicit name parts",
			input: [][]string{{"Ada", "Lovelace"}},
			want:  [][]string{{"Ada", "Lovelace"}},
		},
		{
			name:  "mapping form",
			input: map[string]any{"names": [][]string{{"Ada", "Lovelace"}}},
			want:  [][]string{{"Ada", "Lovelace"}},
		},
		{name: "leading and", input: "and John Smith", wantErr: ErrInvalidAuthors},
		{name: "trailing and", input: "John Smith and", wantErr: ErrInvalidAuthors},
		{name: "trailing and with space", input: "John Smith and ", wantErr: ErrInvalidAuthors},
		{name: "repeated and", input: "A and and B", wantErr: ErrInvalidAuthors},
		{name: "unmatched closing brace", input: "John} Smith", wantErr: ErrInvalidAuthors},
		{name: "unterminated brace", input: "{John Smith", wantErr: ErrInvalidAuthors},
		{name: "empty string", input: "", wantErr: ErrInvalidAuthors},
		{name: "empty author parts", input: [][]string{{}}, wantErr: ErrInvalidAuthors},
		{name: "unsupported type", input: 42, wantErr: ErrInvalidAuthors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			al, err := ParseAuthors(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, al.Names)
			assert.True(t, al.FullFirst)
			assert.True(t, al.FullOther)
		})
	}
}

func TestParseAuthorsCopiesAuthorList(t *testing.T) {
	orig := MustAuthors("John Smith")
	cp, err := ParseAuthors(orig)
	require.NoError(t, err)

	cp.Names[0][0] = "Jim"
	assert.Equal(t, "John", orig.Names[0][0])
}

func TestAuthorListRendering(t *testing.T) {
	al := MustAuthors("John Ronald Reuel Tolkien and Clive Staples Lewis")

	assert.Equal(t, "John Ronald Reuel Tolkien and Clive Staples Lewis", al.String())
	assert.Equal(t, "John Ronald Reuel Tolkien, Clive Staples Lewis", al.Show())

	al.FullFirst = false
	al.FullOther = false
	assert.Equal(t, "J. R. R. Tolkien and C. S. Lewis", al.String())
	assert.Equal(t, "J. R. R. Tolkien, C. S. Lewis", al.Show())

	al.FullFirst = true
	assert.Equal(t, "John R. R. Tolkien, Clive S. Lewis", al.Show())
}

func TestAuthorListSingleNamePart(t *testing.T) {
	al := MustAuthors("Plato and Aristotle")
	al.FullFirst = false
	assert.Equal(t, "Plato and Aristotle", al.String())
}

func TestAuthorListInitialSkipsEscapes(t *testing.T) {
	al := MustAuthors(`{\"O}scar Wilde`)
	al.FullFirst = false
	assert.Equal(t, "O. Wilde", al.Show())
}

func TestAuthorListCode(t *testing.T) {
	al := MustAuthors("John Smith")
	assert.Equal(t, [][]string{{"John", "Smith"}}, al.Code())

	al.FullOther = false
	code, ok := al.Code().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, code["fullother"])
	assert.Equal(t, true, code["fullfirst"])

	back, err := ParseAuthors(code)
	require.NoError(t, err)
	assert.Equal(t, al, back)
}

func TestAuthorListCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
		same bool
	}{
		{name: "same people different spelling", a: "John Smith", b: "J. Smith", want: 0, same: true},
		{name: "case and punctuation ignored in surname", a: "John O'Neil", b: "John Oneil", want: 0, same: true},
		{name: "surname orders first", a: "Zed Adams", b: "Al Brown", want: -1},
		{name: "first initial breaks surname ties", a: "Adam Smith", b: "John Smith", want: -1},
		{name: "missing first name skips initial", a: "Smith", b: "John Smith", want: 0, same: true},
		{name: "shorter list sorts first", a: "John Smith", b: "John Smith and Al Brown", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := MustAuthors(tt.a), MustAuthors(tt.b)
			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, -tt.want, b.Compare(a))
			assert.Equal(t, tt.same, a.Equivalent(b))
		})
	}
}

func TestAuthorListFind(t *testing.T) {
	al := MustAuthors("Paul Anderson and Lawrence Quinn Lund")

	assert.Equal(t, 0, al.Find(AuthorQuery{Last: "Anderson"}))
	assert.Equal(t, 0, al.Find(AuthorQuery{Last: "Anderson", First: "Paul"}))
	assert.Equal(t, -1, al.Find(AuthorQuery{Last: "Anderson", First: "Lawrence"}))
	assert.Equal(t, 1, al.Find(AuthorQuery{Other: "Quinn"}))
	assert.Equal(t, 1, al.Find(AuthorQuery{Any: "Lund"}))
	assert.Equal(t, -1, al.Find(AuthorQuery{Any: "Smith"}))
}
