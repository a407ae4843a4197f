package literature

import "testing"

func TestComponentSet_Overall(t *testing.T) {
	tests := []struct {
		name string
		meta Status
		cont Status
		refs Status
		want OverallStatus
	}{
		{"all pending", StatusPending, StatusPending, StatusPending, OverallProcessing},
		{"metadata processing", StatusProcessing, StatusPending, StatusPending, OverallProcessing},
		{"refs processing", StatusSuccess, StatusSuccess, StatusProcessing, OverallProcessing},
		{"everything succeeded", StatusSuccess, StatusSuccess, StatusSuccess, OverallCompleted},
		{"partial metadata, refs ok", StatusPartial, StatusSuccess, StatusSuccess, OverallCompleted},
		{"partial refs still completed", StatusSuccess, StatusSuccess, StatusPartial, OverallCompleted},
		{"metadata ok, refs failed", StatusSuccess, StatusSuccess, StatusFailed, OverallPartialCompleted},
		{"partial metadata, refs failed", StatusPartial, StatusSuccess, StatusFailed, OverallMinimalCompleted},
		{"metadata failed", StatusFailed, StatusPending, StatusPending, OverallFailed},
		{"content failed, no metadata", StatusPending, StatusFailed, StatusPending, OverallFailed},
		{"content failed, metadata partial", StatusPartial, StatusFailed, StatusSuccess, OverallCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := ComponentSet{
				Metadata:   ComponentStatus{Status: tt.meta},
				Content:    ComponentStatus{Status: tt.cont},
				References: ComponentStatus{Status: tt.refs},
			}
			if got := set.Overall(); got != tt.want {
				t.Errorf("Overall() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComponentSet_SetDoesNotMutate(t *testing.T) {
	base := NewComponentSet()
	updated := base.Set(ComponentMetadata, ComponentStatus{Status: StatusSuccess})

	if base.Metadata.Status != StatusPending {
		t.Error("Set mutated the receiver")
	}
	if updated.Metadata.Status != StatusSuccess {
		t.Error("Set did not apply the update")
	}
	if updated.References.Status != StatusPending {
		t.Error("Set touched an unrelated component")
	}
}

func TestCitationEdge_ValidateForCreate(t *testing.T) {
	edge := CitationEdge{FromLID: "a", ToLID: "b", Confidence: 0.9}
	if err := edge.ValidateForCreate(); err != nil {
		t.Fatalf("valid edge rejected: %v", err)
	}
	if edge.Kind != RelationCites {
		t.Errorf("default kind not applied, got %q", edge.Kind)
	}

	bad := []CitationEdge{
		{ToLID: "b"},
		{FromLID: "a"},
		{FromLID: "a", ToLID: "a"},
		{FromLID: "a", ToLID: "b", Confidence: 1.5},
	}
	for i, e := range bad {
		if err := e.ValidateForCreate(); err == nil {
			t.Errorf("case %d: invalid edge accepted", i)
		}
	}
}

func TestValidAliasKind(t *testing.T) {
	for _, k := range []AliasKind{AliasDOI, AliasArxiv, AliasURL, AliasPDFURL, AliasPMID, AliasSourcePage, AliasTitle} {
		if !ValidAliasKind(k) {
			t.Errorf("kind %q should be valid", k)
		}
	}
	if ValidAliasKind("s2") {
		t.Error("unknown alias kind accepted")
	}
}
