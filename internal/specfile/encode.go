package specfile

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// EncodeCollections serializes specs into the collection-file schema, so a
// dump can be listed as a future collection file unchanged. Collections are
// emitted sorted by name.
func EncodeCollections(specs []CollectionSpec) ([]byte, error) {
	ordered := make([]CollectionSpec, len(specs))
	copy(ordered, specs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	collections := &yaml.Node{Kind: yaml.MappingNode}
	for _, spec := range ordered {
		block, err := collectionNode(spec)
		if err != nil {
			return nil, err
		}
		collections.Content = append(collections.Content, scalarNode(spec.Name), block)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content, scalarNode("collections"), collections)

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return nil, fmt.Errorf("encode collections: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encode collections: %w", err)
	}
	return buf.Bytes(), nil
}

func collectionNode(spec CollectionSpec) (*yaml.Node, error) {
	items := &yaml.Node{Kind: yaml.SequenceNode}
	for _, entry := range spec.Items {
		value, err := entry.MarshalYAML()
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", spec.Name, err)
		}
		node := &yaml.Node{}
		if err := node.Encode(value); err != nil {
			return nil, fmt.Errorf("collection %q: %w", spec.Name, err)
		}
		items.Content = append(items.Content, node)
	}

	block := &yaml.Node{Kind: yaml.MappingNode}
	block.Content = append(block.Content, scalarNode("items"), items)
	for _, attr := range []struct{ key, value string }{
		{"sort", spec.Sort},
		{"mode", spec.Mode},
		{"titleSort", spec.TitleSort},
		{"contentRating", spec.ContentRating},
		{"summary", spec.Summary},
		{"poster", spec.Poster},
		{"art", spec.Art},
	} {
		if attr.value == "" {
			continue
		}
		block.Content = append(block.Content, scalarNode(attr.key), scalarNode(attr.value))
	}
	return block, nil
}

func scalarNode(value string) *yaml.Node {
	node := &yaml.Node{}
	node.SetString(value)
	return node
}
