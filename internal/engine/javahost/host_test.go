package javahost

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsguard/internal/engine/analysis"
)

const serviceSource = `package com.acme.app;

import com.acme.lib.Client;
import com.acme.lib.*;
import java.util.List;

public class Service<T> {
    private Client client;
    private List<Widget> widgets;
    private T value;

    public Service() {
        this.client = Client.create();
        helper();
    }

    private Widget helper() {
        return new Widget();
    }

    static class Inner {
        String name;
    }
}
`

const clientSource = `package com.acme.lib;

public class Client {
    public static Client create() {
        return new Client();
    }
}
`

const widgetSource = `package com.acme.lib;

public class Widget {
}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func loadTree(t *testing.T, exclude func(string, bool) bool) (string, []analysis.Document) {
	t.Helper()
	root := writeTree(t, map[string]string{
		"src/com/acme/app/Service.java": serviceSource,
		"src/com/acme/lib/Client.java":  clientSource,
		"src/com/acme/lib/Widget.java":  widgetSource,
		"build/Generated.java":          "package gen; class Generated { Service s; }",
		"README.md":                     "not java",
	})
	docs, err := New(2, exclude).Load(context.Background(), root)
	require.NoError(t, err)
	return root, docs
}

func find(t *testing.T, docs []analysis.Document, suffix string) analysis.Document {
	t.Helper()
	for _, d := range docs {
		if strings.HasSuffix(filepath.ToSlash(d.Path()), suffix) {
			return d
		}
	}
	t.Fatalf("document %s not loaded", suffix)
	return nil
}

func edges(doc analysis.Document) []analysis.TypeDependency {
	var deps []analysis.TypeDependency
	for n := range doc.Nodes() {
		deps = append(deps, analysis.Dependencies(n, doc.Model())...)
	}
	return deps
}

func TestHost_LoadDiscoversJavaFiles(t *testing.T) {
	_, docs := loadTree(t, func(path string, isDir bool) bool {
		return isDir && filepath.Base(path) == "build"
	})
	require.Len(t, docs, 3)
	// documents come back in path order
	assert.True(t, strings.HasSuffix(docs[0].Path(), "Service.java"))
	assert.True(t, strings.HasSuffix(docs[1].Path(), "Client.java"))
	assert.True(t, strings.HasSuffix(docs[2].Path(), "Widget.java"))
}

func TestHost_ServiceDependencies(t *testing.T) {
	_, docs := loadTree(t, nil)
	service := find(t, docs, "app/Service.java")

	var got []string
	for _, d := range edges(service) {
		got = append(got, d.String())
	}
	assert.Equal(t, []string{
		"com.acme.app.Service -> com.acme.lib.Client",
		"com.acme.app.Service -> java.util.List",
		"com.acme.app.Service -> com.acme.lib.Widget",
		"com.acme.app.Service -> com.acme.app.T",
		"com.acme.app.Service -> com.acme.lib.Client",
		"com.acme.app.Service -> com.acme.lib.Client",
		"com.acme.app.Service -> com.acme.lib.Widget",
		"com.acme.app.Service -> com.acme.lib.Widget",
		"com.acme.app.Service -> com.acme.lib.Widget",
		"com.acme.app.Inner -> java.lang.String",
	}, got)
}

func TestHost_GenericSegmentOmitsTypeArguments(t *testing.T) {
	_, docs := loadTree(t, nil)
	service := find(t, docs, "app/Service.java")

	for _, d := range edges(service) {
		if d.ToType != "List" {
			continue
		}
		assert.Equal(t, "List", d.Segment.Text)
		assert.Equal(t, 9, d.Segment.StartLine)
		assert.Equal(t, 13, d.Segment.StartColumn)
		assert.Equal(t, 9, d.Segment.EndLine)
		assert.Equal(t, 17, d.Segment.EndColumn)
		return
	}
	t.Fatal("no edge to List")
}

func TestHost_InvocationSegmentIsMethodName(t *testing.T) {
	_, docs := loadTree(t, nil)
	service := find(t, docs, "app/Service.java")

	var texts []string
	for _, d := range edges(service) {
		texts = append(texts, d.Segment.Text)
	}
	assert.Contains(t, texts, "create")
	assert.Contains(t, texts, "helper")
}

func TestHost_DefaultPackageIsNotAnalyzed(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Main.java": "public class Main { Helper h; }\nclass Helper {}\n",
	})
	docs, err := New(0, nil).Load(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Empty(t, edges(docs[0]))
}

func TestHost_MissingRoot(t *testing.T) {
	_, err := New(1, nil).Load(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestUnit_ResolveScopedNames(t *testing.T) {
	h := New(1, nil)
	outer, err := h.parseSource("Outer.java", []byte("package p;\npublic class Outer { public static class Nested {} }\n"))
	require.NoError(t, err)
	user, err := h.parseSource("User.java", []byte("package q;\nimport p.Outer;\nclass User { Outer.Nested n; java.io.File f; }\n"))
	require.NoError(t, err)
	newIndex([]*unit{outer, user})

	nested := user.resolve("Outer.Nested")
	require.NotNil(t, nested)
	assert.Equal(t, "Nested", nested.Name())
	ns, _ := nested.Namespace()
	assert.Equal(t, "p", ns)

	file := user.resolve("java.io.File")
	require.NotNil(t, file)
	ns, _ = file.Namespace()
	assert.Equal(t, "java.io", ns)

	assert.Nil(t, user.resolve("Unknown"))
	assert.Nil(t, user.resolve("Outer.Missing"))
	assert.Equal(t, int64(0), h.pool.Leased())
}

const gatewaySource = `package com.acme.app;

import com.acme.lib.Color;
import com.acme.lib.Limits;
import com.acme.lib.Marker;
import com.acme.lib.Mapper;
import com.acme.lib.Client;

@Marker
public class Gateway {
    private int count;

    @com.acme.lib.Audited(level = 2)
    int limit() {
        return Limits.MAX + this.count;
    }

    int color() {
        return Color.RED.ordinal();
    }

    Runnable mapper() {
        return Mapper::map;
    }

    Class<?> type() {
        return Client.class;
    }
}
`

func TestHost_TypeNamesInExpressions(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/com/acme/app/Gateway.java": gatewaySource,
	})
	docs, err := New(1, nil).Load(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	var got []string
	for _, d := range edges(docs[0]) {
		got = append(got, d.ToNamespace+"."+d.ToType+" "+d.Segment.Text)
	}
	for _, want := range []string{
		"com.acme.lib.Marker Marker",
		"com.acme.lib.Audited com.acme.lib.Audited",
		"com.acme.lib.Limits Limits",
		"com.acme.lib.Color Color",
		"com.acme.lib.Mapper Mapper",
		"com.acme.lib.Client Client",
	} {
		assert.Contains(t, got, want)
	}
	for _, edge := range got {
		if strings.Contains(edge, "count") || strings.Contains(edge, "MAX") || strings.Contains(edge, "RED") {
			t.Fatalf("member name reported as a type: %s", edge)
		}
	}
}

func TestUnit_LowerCaseQualifierIsNotAType(t *testing.T) {
	h := New(1, nil)
	u, err := h.parseSource("Holder.java", []byte("package p;\nclass Holder { Object v() { return config.VALUE; } }\n"))
	require.NoError(t, err)
	for _, n := range u.nodes {
		if n.typeRef {
			t.Fatalf("unexpected type reference %q", n.Text())
		}
	}
}
