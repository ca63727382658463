package set

import (
	"context"
	"slices"
	"testing"

	"github.com/dogmatiq/permitkv/internal/x/xtesting"
	"pgregory.net/rapid"
)

// RunTests runs tests that confirm a [BinaryStore] implementation behaves correctly.
func RunTests(
	t *testing.T,
	store BinaryStore,
) {
	setup := func(t *testing.T) BinarySet {
		name := xtesting.SequentialName("set")

		set, err := store.Open(t.Context(), name)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := set.Close(); err != nil {
				t.Error(err)
			}
		})

		if set.Name() != name {
			t.Fatalf("unexpected set name: got %q, want %q", set.Name(), name)
		}

		return set
	}

	expectMembership := func(t *testing.T, set BinarySet, v string, expect bool) {
		t.Helper()

		ok, err := set.Has(t.Context(), []byte(v))
		if err != nil {
			t.Fatal(err)
		}

		if ok != expect {
			t.Fatalf("unexpected membership of %q: got %t, want %t", v, ok, expect)
		}
	}

	t.Run("Store", func(t *testing.T) {
		t.Parallel()

		t.Run("Open", func(t *testing.T) {
			t.Parallel()

			t.Run("allows sets to be opened multiple times", func(t *testing.T) {
				t.Parallel()

				name := xtesting.SequentialName("set")

				s1, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer s1.Close()

				s2, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer s2.Close()

				if err := s1.Add(t.Context(), []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				expectMembership(t, s2, "<value>", true)
			})

			t.Run("isolates sets with different names", func(t *testing.T) {
				t.Parallel()

				s1 := setup(t)
				s2 := setup(t)

				if err := s1.Add(t.Context(), []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				expectMembership(t, s2, "<value>", false)
			})
		})
	})

	t.Run("Set", func(t *testing.T) {
		t.Parallel()

		t.Run("Has", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns false if the value is not a member", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				expectMembership(t, set, "<value>", false)
			})

			t.Run("it returns true if the value is a member", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				if err := set.Add(t.Context(), []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				expectMembership(t, set, "<value>", true)
			})

			t.Run("it returns false if the value has been removed", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				if err := set.Add(t.Context(), []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				if err := set.Remove(t.Context(), []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				expectMembership(t, set, "<value>", false)
			})
		})

		t.Run("Add", func(t *testing.T) {
			t.Parallel()

			t.Run("it is idempotent", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				for range 3 {
					if err := set.Add(t.Context(), []byte("<value>")); err != nil {
						t.Fatal(err)
					}
				}

				expectMembership(t, set, "<value>", true)
			})

			t.Run("it does not keep a reference to the value slice", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				v := []byte("<value>")
				if err := set.Add(t.Context(), v); err != nil {
					t.Fatal(err)
				}

				v[0] = 'X'

				expectMembership(t, set, "<value>", true)
				expectMembership(t, set, "Xvalue>", false)
			})
		})

		t.Run("TryAdd", func(t *testing.T) {
			t.Parallel()

			t.Run("it reports whether the value was added", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				ok, err := set.TryAdd(t.Context(), []byte("<value>"))
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected first TryAdd() to add the value")
				}

				ok, err = set.TryAdd(t.Context(), []byte("<value>"))
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected second TryAdd() to report an existing member")
				}
			})
		})

		t.Run("Remove", func(t *testing.T) {
			t.Parallel()

			t.Run("it allows removing a value that is not a member", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				if err := set.Remove(t.Context(), []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				expectMembership(t, set, "<value>", false)
			})
		})

		t.Run("TryRemove", func(t *testing.T) {
			t.Parallel()

			t.Run("it reports whether the value was removed", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				if err := set.Add(t.Context(), []byte("<value>")); err != nil {
					t.Fatal(err)
				}

				ok, err := set.TryRemove(t.Context(), []byte("<value>"))
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected first TryRemove() to remove the value")
				}

				ok, err = set.TryRemove(t.Context(), []byte("<value>"))
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected second TryRemove() to report a non-member")
				}
			})
		})
	})

	t.Run("property-based", func(t *testing.T) {
		t.Parallel()

		rapid.Check(t, func(t *rapid.T) {
			ctx := context.Background()

			set, err := store.Open(ctx, xtesting.SequentialName("set"))
			if err != nil {
				t.Fatal(err)
			}
			defer set.Close()

			nonEmpty := rapid.StringN(1, -1, -1)
			var members []string

			t.Repeat(
				map[string]func(*rapid.T){
					"": func(t *rapid.T) {
						for _, v := range members {
							ok, err := set.Has(ctx, []byte(v))
							if err != nil {
								t.Fatal(err)
							}
							if !ok {
								t.Fatalf("expected %q to be a member", v)
							}
						}
					},
					"Has": func(t *rapid.T) {
						v := nonEmpty.Draw(t, "value")

						ok, err := set.Has(ctx, []byte(v))
						if err != nil {
							t.Fatal(err)
						}

						if expect := slices.Contains(members, v); ok != expect {
							t.Fatalf("unexpected membership of %q: got %t, want %t", v, ok, expect)
						}
					},
					"TryAdd": func(t *rapid.T) {
						v := nonEmpty.Draw(t, "value")

						ok, err := set.TryAdd(ctx, []byte(v))
						if err != nil {
							t.Fatal(err)
						}

						if expect := !slices.Contains(members, v); ok != expect {
							t.Fatalf("unexpected TryAdd() result for %q: got %t, want %t", v, ok, expect)
						}

						if ok {
							members = append(members, v)
						}
					},
					"TryRemove": func(t *rapid.T) {
						if len(members) == 0 {
							t.Skip("skip: set is empty")
						}

						v := rapid.SampledFrom(members).Draw(t, "value")

						ok, err := set.TryRemove(ctx, []byte(v))
						if err != nil {
							t.Fatal(err)
						}
						if !ok {
							t.Fatalf("expected %q to be removed", v)
						}

						members = slices.DeleteFunc(
							members,
							func(x string) bool {
								return x == v
							},
						)
					},
				},
			)
		})
	})
}
