package presentation

import (
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-crudgen/pkg/model"
)

// ObjectListTag renders a list of objects: "{% object_list %}" lists the
// context's object_list, "{% object_list items %}" lists items unless empty.
const ObjectListTag = "object_list"

func init() {
	if err := pongo2.RegisterTag(ObjectListTag, parseObjectListTag); err != nil {
		panic(err)
	}
}

type objectListNode struct {
	position *pongo2.Token
	list     pongo2.IEvaluator
}

func parseObjectListTag(_ *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	node := &objectListNode{position: start}
	if arguments.Remaining() > 0 {
		expr, err := arguments.ParseExpression()
		if err != nil {
			return nil, err
		}
		node.list = expr
	}
	if arguments.Remaining() > 0 {
		return nil, arguments.Error("object_list takes at most one argument.", nil)
	}
	return node, nil
}

func (n *objectListNode) Execute(ctx *pongo2.ExecutionContext, w pongo2.TemplateWriter) *pongo2.Error {
	h, ok := ctx.Public[HelpersKey].(*Helpers)
	if !ok {
		return ctx.Error(fmt.Sprintf("object_list: %s missing from the template context", HelpersKey), n.position)
	}

	var explicit []*model.Object
	if n.list != nil {
		value, err := n.list.Evaluate(ctx)
		if err != nil {
			return err
		}
		if !value.IsNil() {
			list, ok := value.Interface().([]*model.Object)
			if !ok {
				return ctx.Error(fmt.Sprintf("object_list: expected a list of objects, got %T", value.Interface()), n.position)
			}
			explicit = list
		}
	}

	out, err := h.RenderObjectList(ObjectList(explicit, ctx.Public))
	if err != nil {
		return ctx.OrigError(err, n.position)
	}
	if _, err := w.WriteString(out); err != nil {
		return ctx.OrigError(err, n.position)
	}
	return nil
}
