package code_analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "javascript", DetectLanguage("src/app.js"))
	assert.Equal(t, "javascript", DetectLanguage("src/app.mjs"))
	assert.Equal(t, "typescript", DetectLanguage("src/app.ts"))
	assert.Equal(t, "tsx", DetectLanguage("src/App.tsx"))
	assert.Equal(t, "python", DetectLanguage("scripts/build.py"))
	assert.Equal(t, "go", DetectLanguage("main.go"))

	// Unknown extensions fall back to the lexer registry
	assert.Equal(t, "ruby", DetectLanguage("scripts/deploy.rb"))
}

func TestTreeSitterParser_JavaScriptImportsAndExports(t *testing.T) {
	source := []byte(`
import React from './react-shim';
import { helper } from '../lib/helper';
const fs = require('fs');

export function run() {
	return helper();
}

export const VERSION = '1.0';
`)

	result, err := NewTreeSitterParser().Parse(source, "javascript")
	require.NoError(t, err)

	assert.Contains(t, result.Imports, "./react-shim")
	assert.Contains(t, result.Imports, "../lib/helper")
	assert.Contains(t, result.Imports, "fs")
	assert.Contains(t, result.Exports, "run")
	assert.Contains(t, result.Exports, "VERSION")
	assert.NotEmpty(t, result.StructuralHash)
}

func TestTreeSitterParser_ReExportRegistersImport(t *testing.T) {
	source := []byte(`export { formatDate } from './dates';`)

	result, err := NewTreeSitterParser().Parse(source, "javascript")
	require.NoError(t, err)

	assert.Contains(t, result.Exports, "formatDate")
	assert.Contains(t, result.Imports, "./dates")
}

func TestTreeSitterParser_Complexity(t *testing.T) {
	plain := []byte(`function f() { return 1; }`)
	branching := []byte(`
function f(a, b) {
	if (a && b) {
		return 1;
	}
	for (let i = 0; i < 10; i++) {
		a += i;
	}
	return 0;
}
`)

	plainResult, err := NewTreeSitterParser().Parse(plain, "javascript")
	require.NoError(t, err)
	assert.Equal(t, 1, plainResult.Complexity)

	branchingResult, err := NewTreeSitterParser().Parse(branching, "javascript")
	require.NoError(t, err)
	// base 1 + if + && + for
	assert.Equal(t, 4, branchingResult.Complexity)
}

func TestTreeSitterParser_UnsafeTypesAndJSX(t *testing.T) {
	tsSource := []byte(`
export function parse(input: any): any {
	return input;
}
`)
	result, err := NewTreeSitterParser().Parse(tsSource, "typescript")
	require.NoError(t, err)
	assert.Equal(t, 2, result.UnsafeTypeCount)
	assert.False(t, result.HasJSX)

	tsxSource := []byte(`
export function App() {
	return <div className="app" />;
}
`)
	result, err = NewTreeSitterParser().Parse(tsxSource, "tsx")
	require.NoError(t, err)
	assert.True(t, result.HasJSX)
}

func TestTreeSitterParser_PythonModuleDefinitions(t *testing.T) {
	source := []byte(`
import os
from pathlib import Path

def build(target):
    return target

def _internal():
    pass

class Builder:
    def run(self):
        pass
`)

	result, err := NewTreeSitterParser().Parse(source, "python")
	require.NoError(t, err)

	assert.Contains(t, result.Imports, "os")
	assert.Contains(t, result.Imports, "pathlib")
	assert.Contains(t, result.Exports, "build")
	assert.Contains(t, result.Exports, "Builder")
	assert.NotContains(t, result.Exports, "_internal")
	// The method is not a module-level definition
	assert.NotContains(t, result.Exports, "run")
}

func TestTreeSitterParser_GoDeclarations(t *testing.T) {
	source := []byte(`package widgets

import "fmt"

type Widget struct{}

func NewWidget() *Widget { return &Widget{} }

func internal() { fmt.Println("x") }
`)

	result, err := NewTreeSitterParser().Parse(source, "go")
	require.NoError(t, err)

	assert.Contains(t, result.Imports, "fmt")
	assert.Contains(t, result.Exports, "Widget")
	assert.Contains(t, result.Exports, "NewWidget")
	assert.NotContains(t, result.Exports, "internal")
}

// Renaming identifiers and changing literal values must not change the
// structural hash; adding a statement must.
func TestTreeSitterParser_StructuralHashCollapsesNames(t *testing.T) {
	original := []byte(`
export function greet(name) {
	if (!name) {
		return "hello";
	}
	return "hello " + name;
}
`)
	renamed := []byte(`
export function salute(person) {
	if (!person) {
		return "howdy";
	}
	return "howdy " + person;
}
`)
	reshaped := []byte(`
export function greet(name) {
	if (!name) {
		return "hello";
	}
	const suffix = "!";
	return "hello " + name + suffix;
}
`)

	parser := NewTreeSitterParser()

	first, err := parser.Parse(original, "javascript")
	require.NoError(t, err)
	second, err := parser.Parse(renamed, "javascript")
	require.NoError(t, err)
	third, err := parser.Parse(reshaped, "javascript")
	require.NoError(t, err)

	assert.Equal(t, first.StructuralHash, second.StructuralHash)
	assert.NotEqual(t, first.StructuralHash, third.StructuralHash)
}

func TestRegexParser_JavaScript(t *testing.T) {
	source := []byte(`
import { api } from './api';
const lodash = require('lodash');

export function fetchUser(id) {
	if (!id) {
		throw new Error('missing id');
	}
	return api.get(id);
}

export { cacheUser as storeUser };
module.exports.legacy = fetchUser;
`)

	result, err := NewRegexParser().Parse(source, "javascript")
	require.NoError(t, err)

	assert.Contains(t, result.Imports, "./api")
	assert.Contains(t, result.Imports, "lodash")
	assert.Contains(t, result.Exports, "fetchUser")
	assert.Contains(t, result.Exports, "storeUser")
	assert.Contains(t, result.Exports, "legacy")
	assert.Greater(t, result.Complexity, 1)
}

func TestRegexParser_Python(t *testing.T) {
	source := []byte(`
import json
from collections import OrderedDict

def serialize(data):
    if data is None:
        return "{}"
    return json.dumps(data)

def _private():
    pass
`)

	result, err := NewRegexParser().Parse(source, "python")
	require.NoError(t, err)

	assert.Contains(t, result.Imports, "json")
	assert.Contains(t, result.Imports, "collections")
	assert.Contains(t, result.Exports, "serialize")
	assert.NotContains(t, result.Exports, "_private")
}

func TestRegexParser_StructuralHashNormalizesNames(t *testing.T) {
	parser := NewRegexParser()

	first, err := parser.Parse([]byte(`const total = price * 2;`), "javascript")
	require.NoError(t, err)
	second, err := parser.Parse([]byte(`const sum = cost * 7;`), "javascript")
	require.NoError(t, err)

	assert.Equal(t, first.StructuralHash, second.StructuralHash)
}

// No file is ever dropped for parse reasons alone: the ladder always produces
// a record with at least complexity 1 and a structural hash.
func TestParseWithFallback_NeverReturnsNil(t *testing.T) {
	cases := [][2]string{
		{"export const a = 1;", "javascript"},
		{"def f():\n    pass\n", "python"},
		{"body { color: red; }", ""},
		{"\x00\x01binary-ish", "unknown-language"},
	}

	for _, c := range cases {
		result := ParseWithFallback([]byte(c[0]), c[1])
		require.NotNil(t, result)
		assert.GreaterOrEqual(t, result.Complexity, 1)
		assert.NotEmpty(t, result.StructuralHash)
	}
}

func TestHashContent_Deterministic(t *testing.T) {
	content := []byte("export const x = 1;")
	assert.Equal(t, HashContent(content), HashContent(content))
	assert.NotEqual(t, HashContent(content), HashContent([]byte("export const x = 2;")))
}
