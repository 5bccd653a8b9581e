package parser

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cxxls/cxxls/internal/types"
)

const sample = `#include "foo.h"
#include <vector>

namespace ns {

class Widget {
public:
    void render();
private:
    int count;
};

void Widget::render() {
    count = 1;
    helper();
}

int helper() {
    return 42;
}

#if 0
void deadCode() {}
#endif

static int globalCounter;

}
`

func TestParseFileExtractsCppFacts(t *testing.T) {
	p := New()
	idx, err := p.ParseFile("/proj/widget.cpp", []byte(sample), time.Now())
	require.NoError(t, err)
	require.NotNil(t, idx)

	require.Equal(t, types.LangCpp, idx.Language)

	require.Len(t, idx.Includes, 2)
	require.Equal(t, filepath.Join("/proj", "foo.h"), idx.Includes[0].ResolvedPath)
	require.Equal(t, "vector", idx.Includes[1].ResolvedPath)

	require.Len(t, idx.Types, 1)
	require.Equal(t, "ns::Widget", idx.Types[0].Def.DetailedName)

	renderIdx, helperIdx := -1, -1
	for i, f := range idx.Funcs {
		switch f.Def.ShortName {
		case "render":
			renderIdx = i
		case "helper":
			helperIdx = i
		}
	}
	require.GreaterOrEqual(t, renderIdx, 0, "expected a render function entity")
	require.GreaterOrEqual(t, helperIdx, 0, "expected a helper function entity")

	renderFn := idx.Funcs[renderIdx]
	require.Equal(t, "ns::Widget::render()", renderFn.Def.DetailedName)
	require.Len(t, renderFn.DeclarationsLocal, 2, "prototype and definition should merge into one entity")
	require.Len(t, renderFn.Def.CalleesLocal, 1)
	require.Equal(t, types.LocalID(helperIdx), renderFn.Def.CalleesLocal[0].ID)

	var count, globalCounter bool
	for _, v := range idx.Vars {
		switch v.Def.ShortName {
		case "count":
			count = true
			require.Equal(t, "ns::Widget::count", v.Def.DetailedName)
		case "globalCounter":
			globalCounter = true
			require.Equal(t, types.StorageStatic, v.Def.Storage)
			require.False(t, v.Def.HasFuncParent)
		}
	}
	require.True(t, count)
	require.True(t, globalCounter)

	require.Len(t, idx.SkippedRanges, 1)
}

func TestLanguageForPathRecognizesObjectiveC(t *testing.T) {
	require.Equal(t, types.LangObjC, LanguageForPath("app.m"))
	require.Equal(t, types.LangObjCpp, LanguageForPath("app.mm"))
	require.Equal(t, types.LangC, LanguageForPath("util.c"))
	require.False(t, IsSupported("readme.md"))
}

func TestHandleDeadPreprocIfDoesNotCrashOnMalformedSource(t *testing.T) {
	p := New()
	_, err := p.ParseFile("bad.cpp", []byte("#if 0\nint x\n"), time.Now())
	require.NoError(t, err)
}
