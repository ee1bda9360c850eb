package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"kvtoolkit/codec"
	"kvtoolkit/hexastore"
	"kvtoolkit/kv/memkv"
	"kvtoolkit/model"
)

func demoCommand(c *cli.Context) error {
	if err := runModelDemo(); err != nil {
		return fmt.Errorf("model demo: %w", err)
	}
	fmt.Println()
	if err := runHexastoreDemo(); err != nil {
		return fmt.Errorf("hexastore demo: %w", err)
	}
	return nil
}

func runModelDemo() error {
	spec := model.NewSpec("person", true,
		model.NewField("first", codec.String, model.Indexed()),
		model.NewField("last", codec.String, model.Indexed()),
	)
	reg := model.NewRegistry(spec, memkv.New())

	people := []map[string]any{
		{"first": "grant", "last": "leifer"},
		{"first": "wanda", "last": "leifer"},
		{"first": "huey", "last": "morris"},
	}
	for _, values := range people {
		inst := reg.Create(values)
		if err := reg.Save(inst, true); err != nil {
			return err
		}
	}

	fmt.Println("Model demo: Person records with last == \"leifer\"")
	results, err := reg.Query(model.FieldName("last").Eq("leifer"))
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("  id=%d first=%v last=%v\n", r.ID(), r.Get("first"), r.Get("last"))
	}
	return nil
}

func runHexastoreDemo() error {
	store := hexastore.New(memkv.New(), "demo")
	facts := []hexastore.Triple{
		{S: "charlie", P: "likes", O: "huey"},
		{S: "charlie", P: "likes", O: "mickey"},
		{S: "charlie", P: "likes", O: "zaizee"},
		{S: "huey", P: "is", O: "cat"},
		{S: "mickey", P: "is", O: "dog"},
		{S: "zaizee", P: "is", O: "cat"},
	}
	if err := store.StoreMany(facts); err != nil {
		return err
	}

	fmt.Println(`Hexastore demo: search((charlie,likes,X),(X,is,cat))`)
	bindings, err := store.Search(
		hexastore.Condition{S: hexastore.Const("charlie"), P: hexastore.Const("likes"), O: hexastore.Var("X")},
		hexastore.Condition{S: hexastore.Var("X"), P: hexastore.Const("is"), O: hexastore.Const("cat")},
	)
	if err != nil {
		return err
	}

	values := make([]string, 0, len(bindings["X"]))
	for v := range bindings["X"] {
		values = append(values, v)
	}
	sort.Strings(values)
	fmt.Printf("  X = %v\n", values)
	return nil
}
