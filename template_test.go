package orca

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEngine_Render_PlainTextVariable(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	require.NoError(t, e.RegisterTemplate("greet", "Hello, {{name}}!"))
	ctx := NewContext()
	require.NoError(t, ctx.Insert("name", "Ada"))
	prompt, err := e.Render("greet", ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!", prompt.RenderText())
	_, ok := prompt.(TextPrompt)
	assert.True(t, ok)
}

func TestTemplateEngine_Render_MissingVariableIsEmpty(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	require.NoError(t, e.RegisterTemplate("t", "[{{missing}}]"))
	prompt, err := e.Render("t", NewContext())
	require.NoError(t, err)
	assert.Equal(t, "[]", prompt.RenderText())
}

func TestTemplateEngine_GetTemplate_NotFound(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	_, err := e.GetTemplate("nope")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateEngine_Render_ChatBlock(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	src := `{{#chat}}{{#system}}You are {{bot}}.{{/system}}{{#user}}{{question}}{{/user}}{{/chat}}`
	require.NoError(t, e.RegisterTemplate("chat", src))
	ctx := NewContext()
	require.NoError(t, ctx.Insert("bot", "Helper"))
	require.NoError(t, ctx.Insert("question", "2+2?"))
	prompt, err := e.Render("chat", ctx)
	require.NoError(t, err)
	chat, ok := prompt.(ChatPromptValue)
	require.True(t, ok)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, RoleSystem, chat.Messages[0].Role)
	assert.Equal(t, "You are Helper.", chat.Messages[0].Content)
	assert.Equal(t, RoleUser, chat.Messages[1].Role)
	assert.Equal(t, "2+2?", chat.Messages[1].Content)
}

func TestTemplateEngine_Render_ChatBlockEscapesStructuralChars(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	src := `{{#chat}}{{#user}}{{question}}{{/user}}{{/chat}}`
	require.NoError(t, e.RegisterTemplate("chat", src))
	ctx := NewContext()
	require.NoError(t, ctx.Insert("question", `what is {"x":1}?`))
	prompt, err := e.Render("chat", ctx)
	require.NoError(t, err)
	chat, ok := prompt.(ChatPromptValue)
	require.True(t, ok)
	assert.Equal(t, `what is {"x":1}?`, chat.Messages[0].Content)
}

func TestTemplateEngine_Render_MalformedChatArrayFails(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	// Starts with '[' but is not valid chat-message JSON.
	require.NoError(t, e.RegisterTemplate("bad", `[not json`))
	_, err := e.Render("bad", NewContext())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedChat)
}

func TestTemplateEngine_Render_EachLoopOverStrings(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	require.NoError(t, e.RegisterTemplate("list", "{{#each items}}- {{this}}\n{{/each}}"))
	ctx := NewContext()
	require.NoError(t, ctx.Insert("items", []string{"a", "b", "c"}))
	prompt, err := e.Render("list", ctx)
	require.NoError(t, err)
	assert.Equal(t, "- a\n- b\n- c\n", prompt.RenderText())
}

func TestTemplateEngine_Render_EachLoopPromotesMapFields(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	require.NoError(t, e.RegisterTemplate("list", "{{#each rows}}{{name}}={{value}};{{/each}}"))
	ctx := NewContext()
	require.NoError(t, ctx.Insert("rows", []map[string]any{
		{"name": "a", "value": 1},
		{"name": "b", "value": 2},
	}))
	prompt, err := e.Render("list", ctx)
	require.NoError(t, err)
	assert.Equal(t, "a=1;b=2;", prompt.RenderText())
}

func TestTemplateEngine_Render_IfEqBranches(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	require.NoError(t, e.RegisterTemplate("cond", `{{#if (eq status "ok")}}good{{else}}bad{{/if}}`))

	ctx := NewContext()
	require.NoError(t, ctx.Insert("status", "ok"))
	prompt, err := e.Render("cond", ctx)
	require.NoError(t, err)
	assert.Equal(t, "good", prompt.RenderText())

	ctx2 := NewContext()
	require.NoError(t, ctx2.Insert("status", "fail"))
	prompt2, err := e.Render("cond", ctx2)
	require.NoError(t, err)
	assert.Equal(t, "bad", prompt2.RenderText())
}

func TestTemplateEngine_DuplicateTemplate_IsIndependent(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	require.NoError(t, e.RegisterTemplate("t", "base"))
	dup, err := e.DuplicateTemplate("t")
	require.NoError(t, err)

	require.NoError(t, e.AddToTemplate("t", "+more"))

	shared, err := e.GetTemplate("t")
	require.NoError(t, err)
	assert.Equal(t, "base+more", shared.Source)
	assert.Equal(t, "base", dup.Source)
}

func TestTemplateEngine_AddToTemplate_RecompilesInPlace(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	require.NoError(t, e.RegisterTemplate("t", "{{#user}}hi{{/user}}"))
	require.NoError(t, e.AddToTemplate("t", "{{#user}}again{{/user}}"))
	prompt, err := e.Render("t", NewContext())
	require.NoError(t, err)
	assert.Equal(t, `{"role":"user","content":"hi"},{"role":"user","content":"again"},`, prompt.RenderText())
}

func TestTemplateEngine_AddToTemplate_PreservesChatEnvelope(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	require.NoError(t, e.RegisterTemplate("t", "{{#chat}}{{#user}}hi{{/user}}{{/chat}}"))
	require.NoError(t, e.AddToTemplate("t", "{{#user}}again{{/user}}"))

	tmpl, err := e.GetTemplate("t")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tmpl.Source, "{{#chat}}"))
	assert.True(t, strings.HasSuffix(tmpl.Source, "{{/chat}}"))
	assert.Equal(t, 1, strings.Count(tmpl.Source, "{{#chat}}"))

	prompt, err := e.Render("t", NewContext())
	require.NoError(t, err)
	chat, ok := prompt.(ChatPromptValue)
	require.True(t, ok)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "hi", chat.Messages[0].Content)
	assert.Equal(t, "again", chat.Messages[1].Content)
}

func TestTemplateEngine_AddToTemplate_NotFound(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	err := e.AddToTemplate("missing", "x")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateEngine_RegisterTemplate_CompileErrorUnclosedBlock(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	err := e.RegisterTemplate("bad", "{{#user}}unterminated")
	require.Error(t, err)
}

func TestRenderTemplate_BypassesRegistry(t *testing.T) {
	t.Parallel()
	e := NewTemplateEngine()
	require.NoError(t, e.RegisterTemplate("t", "hi {{name}}"))
	dup, err := e.DuplicateTemplate("t")
	require.NoError(t, err)
	ctx := NewContext()
	require.NoError(t, ctx.Insert("name", "world"))
	prompt, err := RenderTemplate(dup, ctx)
	require.NoError(t, err)
	assert.Equal(t, "hi world", prompt.RenderText())
}
