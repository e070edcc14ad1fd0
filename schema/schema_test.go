package schema

import (
	"sync"
	"testing"
)

func TestLookup_KnownColumn(t *testing.T) {
	def := Default()

	role, ok := def.Lookup("Region")
	if !ok {
		t.Fatal("expected Region to be a known column")
	}
	if role.Role != "Region" {
		t.Errorf("expected role Region, got %s", role.Role)
	}
	if role.Kind != KindCategory {
		t.Errorf("expected category kind, got %s", role.Kind)
	}
	if !role.Required {
		t.Error("expected Region to be required")
	}
}

func TestLookup_UnknownColumn(t *testing.T) {
	def := Default()

	if _, ok := def.Lookup("DoesNotExist"); ok {
		t.Error("expected unknown column to miss")
	}
	// Matching is exact, not case-folded.
	if _, ok := def.Lookup("region"); ok {
		t.Error("expected lookup to be case-sensitive")
	}
}

func TestRequired_ContainsRegionAndRevenue(t *testing.T) {
	def := Default()

	required := def.Required()
	if len(required) != 2 {
		t.Fatalf("expected 2 required roles, got %d", len(required))
	}
	if required[0].Role != "Region" || required[1].Role != "Revenue" {
		t.Errorf("expected [Region Revenue] in declaration order, got [%s %s]",
			required[0].Role, required[1].Role)
	}
}

func TestCategoryRole(t *testing.T) {
	def := Default()

	cat, ok := def.CategoryRole()
	if !ok {
		t.Fatal("expected default schema to declare a category role")
	}
	if cat.Role != "Region" {
		t.Errorf("expected Region as category, got %s", cat.Role)
	}

	noCat := NewDefinition("test", []RoleDefinition{
		{Column: "A", Role: "A", Kind: KindMetric, Type: TypeNumber, Required: true},
	})
	if _, ok := noCat.CategoryRole(); ok {
		t.Error("expected no category role")
	}
}

func TestMetricRoles_DeclarationOrder(t *testing.T) {
	def := Default()

	metrics := def.MetricRoles()
	if len(metrics) != 2 {
		t.Fatalf("expected 2 metric roles, got %d", len(metrics))
	}
	if metrics[0].Role != "Revenue" || metrics[1].Role != "Units" {
		t.Errorf("expected [Revenue Units], got [%s %s]", metrics[0].Role, metrics[1].Role)
	}
}

func TestRoles_ReturnsCopy(t *testing.T) {
	def := Default()

	roles := def.Roles()
	roles[0].Role = "mutated"

	again := def.Roles()
	if again[0].Role == "mutated" {
		t.Error("Roles() must return a copy, not the backing slice")
	}
}

func TestLookup_ConcurrentReads(t *testing.T) {
	def := Default()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if _, ok := def.Lookup("Revenue"); !ok {
					t.Error("lookup missed under concurrency")
					return
				}
			}
		}()
	}
	wg.Wait()
}
