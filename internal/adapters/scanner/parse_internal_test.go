package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		includes []string
		hasMain  bool
	}{
		{"quoted and angled", "#include \"a.h\"\n#include <b/c.h>\n", []string{"a.h", "b/c.h"}, false},
		{"spacing", "  #  include   <vector>\n#include\"x.h\"\n", []string{"vector", "x.h"}, false},
		{"commented out", "// #include \"gone.h\"\n/* x */\n", nil, false},
		{"relative", "#include \"../common/util.h\"\n", []string{"../common/util.h"}, false},
		{"main", "int main(int argc, char** argv) {}\n", nil, true},
		{"main on its own line", "static int x;\nint\nmain2();\nauto main() -> int {}\n", nil, true},
		{"not main", "int mainly(void);\nvoid domain(int);\n", nil, false},
		{"long line", "#include \"a.h\"\nstatic const char blob[] = \"" + strings.Repeat("x", 2<<20) + "\";\n#include \"b.h\"\n", []string{"a.h", "b.h"}, false},
		{"no trailing newline", "#include <a.h>", []string{"a.h"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := parse([]byte(tt.src))
			assert.Equal(t, tt.includes, u.includes)
			assert.Equal(t, tt.hasMain, u.hasMain)
		})
	}
}
