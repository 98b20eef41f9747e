package hooks

import "testing"

func TestRegistryLoad(t *testing.T) {
	broker := NewPluginBroker()
	reg := NewRegistry(broker)

	desc := PluginDescriptor{
		Name:     "metrics",
		Category: PluginCategoryInstrumentation,
	}
	loads := 0
	if err := reg.Register("metrics", desc, func(b *PluginBroker) error {
		loads++
		b.RegisterBundle(desc, HookBundle{
			AfterDispatch: []AfterDispatchHook{
				func(ctx *DispatchContext) error { return nil },
			},
		})
		return nil
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := reg.Load([]string{"metrics", "metrics"}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loads != 1 {
		t.Fatalf("expected factory to run once, ran %d times", loads)
	}

	descs := broker.ListAllPlugins()
	if len(descs) != 1 {
		t.Fatalf("expected 1 plugin descriptor, got %d", len(descs))
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "metrics" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	reg := NewRegistry(NewPluginBroker())

	desc := PluginDescriptor{Name: "dup", Category: PluginCategoryInstrumentation}
	err := reg.Register("dup", desc, func(b *PluginBroker) error { return nil })
	if err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	err = reg.Register("dup", desc, func(b *PluginBroker) error { return nil })
	if err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestRegistryUnknownPlugin(t *testing.T) {
	reg := NewRegistry(NewPluginBroker())

	if err := reg.Load([]string{"missing"}); err == nil {
		t.Fatalf("expected error for missing plugin")
	}
	if _, ok := reg.Descriptor("missing"); ok {
		t.Fatalf("expected no descriptor for missing plugin")
	}
}
