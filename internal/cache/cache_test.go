package cache

import "testing"

func TestInMemoryCacheGetPutIncrementUsage(t *testing.T) {
	c := NewInMemoryCache()
	key := Key{ToolName: "echo", ProviderModel: "anthropic:claude-test"}

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(key, "Echoes the input text back to the caller.", 0.002)
	entry, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if entry.Description != "Echoes the input text back to the caller." {
		t.Errorf("Description = %q", entry.Description)
	}
	if entry.UsageCount != 0 {
		t.Errorf("UsageCount = %d, want 0", entry.UsageCount)
	}

	c.IncrementUsage(key)
	c.IncrementUsage(key)
	entry, _ = c.Get(key)
	if entry.UsageCount != 2 {
		t.Errorf("UsageCount = %d, want 2", entry.UsageCount)
	}

	stats := c.Statistics()
	if stats.EntryCount != 1 || stats.TotalUsage != 2 {
		t.Errorf("Statistics() = %+v", stats)
	}
}

func TestInMemoryCacheClearByProvider(t *testing.T) {
	c := NewInMemoryCache()
	a := Key{ToolName: "echo", ProviderModel: "anthropic:m1"}
	b := Key{ToolName: "echo", ProviderModel: "openai_compat:m2"}
	c.Put(a, "desc a", 0)
	c.Put(b, "desc b", 0)

	c.Clear("anthropic:m1")
	if _, ok := c.Get(a); ok {
		t.Error("expected a to be cleared")
	}
	if _, ok := c.Get(b); !ok {
		t.Error("expected b to survive a scoped clear")
	}

	c.Clear("")
	if _, ok := c.Get(b); ok {
		t.Error("expected empty-provider Clear to wipe everything")
	}
}

func TestNoopCacheNeverStores(t *testing.T) {
	var c Cache = NoopCache{}
	key := Key{ToolName: "echo", ProviderModel: "anthropic:m1"}
	c.Put(key, "desc", 1)
	if _, ok := c.Get(key); ok {
		t.Error("NoopCache must never return a hit")
	}
	if stats := c.Statistics(); stats.EntryCount != 0 {
		t.Errorf("Statistics() = %+v, want empty", stats)
	}
}
