package expand

import "testing"

func TestBuildQueryFromAttributes(t *testing.T) {
	tests := []struct {
		name  string
		attrs ProductAttributes
		want  string
	}{
		{
			name: "brand and model win",
			attrs: ProductAttributes{
				Brand: "omega", Model: "seamaster", ItemType: "watch", Category: "ساعات",
				Keywords: []string{"vintage", "automatic"},
			},
			want: "omega seamaster",
		},
		{
			name: "item type and first three keywords",
			attrs: ProductAttributes{
				ItemType: "carpet",
				Keywords: []string{"persian", "handmade", "antique", "silk"},
			},
			want: "carpet persian handmade antique",
		},
		{
			name:  "brand only",
			attrs: ProductAttributes{Brand: "rolex", ItemType: "watch", Keywords: []string{"gold"}},
			want:  "rolex",
		},
		{
			name:  "model only",
			attrs: ProductAttributes{Model: "daytona", Keywords: []string{"gold"}},
			want:  "daytona",
		},
		{
			name:  "unknown item type skipped",
			attrs: ProductAttributes{ItemType: "unknown", Keywords: []string{"old", "wooden"}},
			want:  "old wooden",
		},
		{
			name:  "placeholder match is case sensitive",
			attrs: ProductAttributes{ItemType: "Unknown", Keywords: []string{"old"}},
			want:  "Unknown old",
		},
		{
			name:  "padded placeholder is not the placeholder",
			attrs: ProductAttributes{ItemType: " unknown "},
			want:  "unknown",
		},
		{
			name:  "short keywords skipped and not counted",
			attrs: ProductAttributes{ItemType: "lamp", Keywords: []string{"a", "brass", "x", "desk", "retro", "green"}},
			want:  "lamp brass desk retro",
		},
		{
			name:  "blank brand treated as absent",
			attrs: ProductAttributes{Brand: "  ", ItemType: "vase"},
			want:  "vase",
		},
		{
			name:  "colors and material ignored",
			attrs: ProductAttributes{ItemType: "chair", Colors: []string{"red"}, Material: "oak"},
			want:  "chair",
		},
		{
			name:  "nothing usable",
			attrs: ProductAttributes{ItemType: "unknown", Category: "أخرى"},
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQueryFromAttributes(tt.attrs); got != tt.want {
				t.Errorf("BuildQueryFromAttributes() = %q, want %q", got, tt.want)
			}
		})
	}
}
