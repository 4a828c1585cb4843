package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/loader/internal/wasmbin"
	"github.com/wippyai/cs-bindgen/naming"
)

func sectionModule(payload string) testModule {
	return testModule{
		memory: true,
		custom: map[string][]byte{DefaultSectionName: []byte(payload)},
	}
}

func TestSectionSource(t *testing.T) {
	wasm := sectionModule(`[` + greetBlob + `,` + counterBlob + `]`).build()

	for _, src := range []Source{SourceSection, SourceAuto} {
		t.Run(src.String(), func(t *testing.T) {
			set, err := New(WithSource(src)).Load(context.Background(), wasm)
			require.NoError(t, err)
			assert.Equal(t, 2, set.Len())
			_, ok := set.Get("greet")
			assert.True(t, ok)
		})
	}

	set, err := New(WithSource(SourceExecute)).Load(context.Background(), wasm)
	require.NoError(t, err)
	assert.Zero(t, set.Len(), "execution ignores the section")
}

func TestSectionSourceNeverExecutes(t *testing.T) {
	conv := naming.DefaultConvention()
	m := sectionModule(`[` + greetBlob + `]`)
	m.functions = []wasmFunctionSpec{
		{name: conv.DeclPtr("greet"), typeIndex: wasmTypeFunc0ToI32, body: unreachableBody},
		{name: conv.DeclLen("greet"), typeIndex: wasmTypeFunc0ToI32, body: unreachableBody},
	}
	wasm := m.build()

	set, err := New().Load(context.Background(), wasm)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())

	_, err = New(WithSource(SourceExecute)).Load(context.Background(), wasm)
	assert.True(t, errors.IsExecutionTrap(err), "got %v", err)
}

func TestSectionSplitAcrossSections(t *testing.T) {
	wasm, err := wasmbin.AppendCustomSection(sectionModule(`[`+greetBlob+`]`).build(), DefaultSectionName, []byte(`[`+counterBlob+`]`))
	require.NoError(t, err)

	blobs, err := New(WithSource(SourceSection)).Blobs(context.Background(), wasm)
	require.NoError(t, err)
	require.Len(t, blobs, 2)
	assert.Equal(t, "cs_bindgen.decls[0]", blobs[0].ID)
	assert.Equal(t, "cs_bindgen.decls[1]", blobs[1].ID)
}

func TestSectionCustomName(t *testing.T) {
	m := testModule{memory: true, custom: map[string][]byte{"decls": []byte(`[` + greetBlob + `]`)}}

	set, err := New(WithSource(SourceSection), WithSectionName("decls")).Load(context.Background(), m.build())
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestSectionFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    errors.Kind
	}{
		{"not an array", `{"Fn":{}}`, errors.KindDecoding},
		{"bad element", `[{"Fn":{"name":"greet"}}]`, errors.KindDecoding},
		{"not UTF-8", "[\"\xff\"]", errors.KindDecoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithSource(SourceSection)).Load(context.Background(), sectionModule(tt.payload).build())
			require.Error(t, err)
			assert.Equal(t, tt.kind, errors.KindOf(err), "got %v", err)
		})
	}
}

func TestSectionMissing(t *testing.T) {
	_, err := New(WithSource(SourceSection)).Load(context.Background(), testModule{memory: true}.build())
	assert.True(t, errors.IsModuleStructure(err), "got %v", err)
}

func TestSectionPayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	wasm := declModule(map[string]string{"greet": greetBlob, "app__Counter": counterBlob}).build()

	blobs, err := New(WithSource(SourceExecute)).Blobs(ctx, wasm)
	require.NoError(t, err)
	require.Len(t, blobs, 2)

	payload, err := SectionPayload(blobs)
	require.NoError(t, err)
	embedded, err := wasmbin.AppendCustomSection(wasm, DefaultSectionName, payload)
	require.NoError(t, err)

	fromExec, err := New(WithSource(SourceExecute)).Load(ctx, wasm)
	require.NoError(t, err)
	fromSection, err := New(WithSource(SourceSection)).Load(ctx, embedded)
	require.NoError(t, err)

	assert.Equal(t, fromExec.All(), fromSection.All())
}

func TestSectionPayloadRejectsNonJSON(t *testing.T) {
	_, err := SectionPayload([]Blob{{ID: "x", Data: []byte("{")}})
	assert.True(t, errors.IsDecoding(err), "got %v", err)
}

func TestEmbed(t *testing.T) {
	ctx := context.Background()
	wasm := declModule(map[string]string{"greet": greetBlob, "app__Counter": counterBlob}).build()

	embedded, n, err := New().Embed(ctx, wasm)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	payloads, err := wasmbin.CustomSections(embedded, DefaultSectionName)
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	fromSection, err := New(WithSource(SourceSection)).Load(ctx, embedded)
	require.NoError(t, err)
	assert.Equal(t, 2, fromSection.Len())

	_, _, err = New().Embed(ctx, embedded)
	assert.True(t, errors.IsModuleStructure(err), "embedding twice: got %v", err)
}

func TestEmbedRejectsMalformedDeclarations(t *testing.T) {
	wasm := declModule(map[string]string{"greet": `{"kind":"Fn"`}).build()

	out, _, err := New().Embed(context.Background(), wasm)
	assert.True(t, errors.IsDecoding(err), "got %v", err)
	assert.Nil(t, out)
}
