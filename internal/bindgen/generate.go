// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bindgen

import (
	"bytes"
	"fmt"
	"go/format"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goplus/maxsat/internal/cheader"
)

// Generate renders s as a cgo source file. It returns one Binding per
// declaration, in surface order, and the formatted file. Any declaration
// that cannot be mirrored fails the whole generation.
func Generate(s *cheader.Surface, opts Options) ([]Binding, []byte, error) {
	g := &generator{
		opts:  opts,
		names: allocate(s),
	}
	g.m = &mapper{
		charSigned: opts.CharSigned,
		records:    make(map[*cheader.Record]string),
		enums:      make(map[*cheader.EnumType]string),
		typedefs:   make(map[string]string),
	}
	for _, d := range s.Decls {
		name := g.names.decls[d]
		switch d.Kind {
		case cheader.DeclStruct, cheader.DeclUnion:
			g.m.records[d.Type.Record] = name
		case cheader.DeclEnum:
			g.m.enums[d.Type.Enum] = name
		case cheader.DeclTypedef:
			g.m.typedefs[d.Name] = name
			if r := d.Type; (r.Kind == cheader.Struct || r.Kind == cheader.Union) && r.Record.Tag == "" {
				g.m.records[r.Record] = name
			}
		}
	}

	bindings := make([]Binding, len(s.Decls))
	for i, d := range s.Decls {
		src, err := g.decl(d)
		if err != nil {
			return nil, nil, &Error{Header: opts.Header, Err: fmt.Errorf("%v: %s: %w", d.Pos, d.Name, err)}
		}
		formatted, err := format.Source([]byte(src))
		if err != nil {
			return nil, nil, &Error{Header: opts.Header, Err: fmt.Errorf("%s: format generated code: %w", d.Name, err)}
		}
		bindings[i] = Binding{Decl: d, GoName: g.names.decls[d], Source: string(formatted)}
	}

	file, err := g.file(bindings)
	if err != nil {
		return nil, nil, &Error{Header: opts.Header, Err: err}
	}
	return bindings, file, nil
}

type generator struct {
	opts  Options
	names *names
	m     *mapper
}

// section orders declarations in the file: constants, then types, then
// variables and functions.
func section(k cheader.DeclKind) int {
	switch k {
	case cheader.DeclConst:
		return 0
	case cheader.DeclStruct, cheader.DeclUnion, cheader.DeclEnum, cheader.DeclTypedef:
		return 1
	}
	return 2
}

// namingRule documents allocate for readers of the generated file.
const namingRule = `// Go names are the C names with the first letter upper-cased; a leading
// underscore becomes an X prefix. Typedef names win over tags: a tag that
// clashes gets a Struct, Union or Enum prefix, any other clash a trailing
// underscore.

`

func (g *generator) file(bindings []Binding) ([]byte, error) {
	var body bytes.Buffer
	for sec := 0; sec < 3; sec++ {
		for _, b := range bindings {
			if section(b.Decl.Kind) == sec {
				body.WriteString(b.Source)
				body.WriteByte('\n')
			}
		}
	}

	source := g.opts.Source
	if source == "" {
		source = filepath.Base(g.opts.Header)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by maxsatgen from %s. DO NOT EDIT.\n\n", source)
	buf.WriteString(namingRule)
	fmt.Fprintf(&buf, "package %s\n\n", g.opts.Package)
	buf.WriteString("/*\n")
	if len(g.opts.CFlags) > 0 {
		fmt.Fprintf(&buf, "#cgo CFLAGS: %s\n", strings.Join(g.opts.CFlags, " "))
	}
	if g.opts.LDFlags != "" {
		fmt.Fprintf(&buf, "#cgo LDFLAGS: %s\n", g.opts.LDFlags)
	}
	fmt.Fprintf(&buf, "#include %s\n", strconv.Quote(g.opts.Header))
	buf.WriteString("*/\nimport \"C\"\n\n")
	if bytes.Contains(body.Bytes(), []byte("unsafe.")) {
		buf.WriteString("import \"unsafe\"\n\n")
	}
	buf.Write(body.Bytes())
	return format.Source(buf.Bytes())
}

func (g *generator) decl(d *cheader.Decl) (string, error) {
	name := g.names.decls[d]
	switch d.Kind {
	case cheader.DeclFunc:
		return g.function(d, name)
	case cheader.DeclVar:
		return g.variable(d, name)
	case cheader.DeclStruct:
		return g.record(d.Type.Record, name, "C.struct_"+d.Name)
	case cheader.DeclUnion:
		return g.union(d.Type.Record, name, "C.union_"+d.Name)
	case cheader.DeclEnum:
		return g.enum(d.Type.Enum, name, "enum "+d.Name), nil
	case cheader.DeclTypedef:
		return g.typedef(d, name)
	case cheader.DeclConst:
		return g.constant(d, name)
	}
	return "", fmt.Errorf("unknown declaration kind %v", d.Kind)
}

func (g *generator) function(d *cheader.Decl, name string) (string, error) {
	ft := d.Type
	params := g.names.params(ft.Params)
	var (
		sig  []string
		args []string
	)
	for i, p := range ft.Params {
		m, err := g.m.typeOf(p.Type)
		if err != nil {
			return "", fmt.Errorf("parameter %s: %w", params[i], err)
		}
		sig = append(sig, params[i]+" "+m.gotype)
		args = append(args, toC(m, params[i]))
	}
	call := "C." + d.Name + "(" + strings.Join(args, ", ") + ")"

	var b strings.Builder
	fmt.Fprintf(&b, "// %s calls %s.\n", name, d.Signature())
	if r := ft.Result.Resolve(); r != nil && r.Kind == cheader.Void {
		fmt.Fprintf(&b, "func %s(%s) {\n\t%s\n}\n", name, strings.Join(sig, ", "), call)
		return b.String(), nil
	}
	res, err := g.m.typeOf(ft.Result)
	if err != nil {
		return "", fmt.Errorf("result: %w", err)
	}
	fmt.Fprintf(&b, "func %s(%s) %s {\n", name, strings.Join(sig, ", "), res.gotype)
	if res.class == value {
		fmt.Fprintf(&b, "\tret := %s\n\treturn *(*%s)(unsafe.Pointer(&ret))\n}\n", call, res.gotype)
	} else {
		fmt.Fprintf(&b, "\treturn %s\n}\n", fromC(res, call))
	}
	return b.String(), nil
}

func (g *generator) variable(d *cheader.Decl, name string) (string, error) {
	m, err := g.m.typeOf(d.Type)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("// %s returns the address of %s.\nfunc %s() *%s {\n\treturn (*%s)(unsafe.Pointer(&C.%s))\n}\n",
		name, d.Signature(), name, m.gotype, m.gotype, d.Name), nil
}

// record mirrors a struct field by field and asserts at compile time that
// the mirror has the size and field offsets of the C type.
func (g *generator) record(r *cheader.Record, name, ctype string) (string, error) {
	if !r.Complete {
		return fmt.Sprintf("// %s is an incomplete C struct; it is only handled through pointers.\ntype %s struct{ _ [0]byte }\n", name, name), nil
	}
	goFields := fields(r.Fields)
	var b strings.Builder
	fmt.Fprintf(&b, "// %s mirrors %s.\ntype %s struct {\n", name, ctype, name)
	for i, f := range r.Fields {
		if f.Name == "" {
			return "", fmt.Errorf("anonymous member of %s is not supported", ctype)
		}
		m, err := g.m.typeOf(f.Type)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", f.Name, err)
		}
		fmt.Fprintf(&b, "\t%s %s\n", goFields[i], m.gotype)
	}
	b.WriteString("}\n\n")
	b.WriteString("var (\n")
	assert(&b, "unsafe.Sizeof("+name+"{})", "unsafe.Sizeof("+ctype+"{})")
	for i, f := range r.Fields {
		assert(&b, "unsafe.Offsetof("+name+"{}."+goFields[i]+")", "unsafe.Offsetof("+ctype+"{}."+cgoField(f.Name)+")")
	}
	b.WriteString(")\n")
	return b.String(), nil
}

// assert emits a pair of array types whose length underflows unless a and
// b are equal constants.
func assert(b *strings.Builder, a, c string) {
	fmt.Fprintf(b, "\t_ [%s - %s]byte\n", a, c)
	fmt.Fprintf(b, "\t_ [%s - %s]byte\n", c, a)
}

func (g *generator) union(r *cheader.Record, name, ctype string) (string, error) {
	if !r.Complete {
		return fmt.Sprintf("// %s is an incomplete C union; it is only handled through pointers.\ntype %s struct{ _ [0]byte }\n", name, name), nil
	}
	for _, f := range r.Fields {
		if _, err := g.m.typeOf(f.Type); err != nil {
			return "", fmt.Errorf("member %s: %w", f.Name, err)
		}
	}
	return fmt.Sprintf("// %s holds the bytes of %s.\ntype %s [unsafe.Sizeof(%s{})]byte\n", name, ctype, name, ctype), nil
}

func (g *generator) enum(en *cheader.EnumType, name, what string) string {
	base := "uint32"
	if en.Signed() {
		base = "int32"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "// %s mirrors %s.\ntype %s %s\n", name, what, name, base)
	if len(en.Values) > 0 {
		b.WriteString("\nconst (\n")
		for _, v := range en.Values {
			fmt.Fprintf(&b, "\t%s %s = C.%s\n", g.names.enumerators[v.Name], name, v.Name)
		}
		b.WriteString(")\n")
	}
	return b.String()
}

func (g *generator) typedef(d *cheader.Decl, name string) (string, error) {
	base := d.Type
	doc := fmt.Sprintf("// %s mirrors %s.\n", name, d.Signature())
	switch base.Kind {
	case cheader.Struct, cheader.Union:
		if base.Record.Tag == "" {
			if base.Kind == cheader.Union {
				return g.union(base.Record, name, "C."+d.Name)
			}
			return g.record(base.Record, name, "C."+d.Name)
		}
		if target, ok := g.m.records[base.Record]; ok {
			return doc + "type " + name + " = " + target + "\n", nil
		}
	case cheader.Enum:
		if base.Enum.Tag == "" {
			return g.enum(base.Enum, name, "typedef "+d.Name), nil
		}
		if target, ok := g.m.enums[base.Enum]; ok {
			return doc + "type " + name + " = " + target + "\n", nil
		}
	case cheader.Named:
		if target, ok := g.m.typedefs[base.Name]; ok {
			return doc + "type " + name + " = " + target + "\n", nil
		}
	case cheader.Func:
		return doc + "type " + name + " = unsafe.Pointer\n", nil
	}
	m, err := g.m.typeOf(base)
	if err != nil {
		if r := base.Resolve(); r == nil || r.Kind == cheader.Struct || r.Kind == cheader.Union {
			return fmt.Sprintf("// %s stands for %s, which is not mirrored; it is only handled through pointers.\ntype %s struct{ _ [0]byte }\n",
				name, d.Signature(), name), nil
		}
		return "", err
	}
	if m.class == scalar || m.class == value {
		return doc + "type " + name + " " + m.gotype + "\n", nil
	}
	return doc + "type " + name + " = " + m.gotype + "\n", nil
}

func (g *generator) constant(d *cheader.Decl, name string) (string, error) {
	if d.Type != nil {
		return fmt.Sprintf("const %s = C.%s\n", name, d.Name), nil
	}
	v := d.Value
	switch v.Kind {
	case cheader.IntValue:
		return fmt.Sprintf("const %s = %s\n", name, v), nil
	case cheader.FloatValue:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return fmt.Sprintf("const %s = %s\n", name, s), nil
	case cheader.StringValue:
		return fmt.Sprintf("const %s = %s\n", name, strconv.Quote(v.Str)), nil
	}
	return "", fmt.Errorf("unsupported constant")
}
