package kv

import (
	"bytes"
	"context"
	"fmt"
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
	setup := func(t *testing.T) BinaryKeyspace {
		name := xtesting.SequentialName("keyspace")

		ks, err := store.Open(t.Context(), name)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := ks.Close(); err != nil {
				t.Error(err)
			}
		})

		if ks.Name() != name {
			t.Fatalf("unexpected keyspace name: got %q, want %q", ks.Name(), name)
		}

		return ks
	}

	set := func(t *testing.T, ks BinaryKeyspace, k, v string, r Revision) {
		t.Helper()

		if err := ks.Set(t.Context(), []byte(k), []byte(v), r); err != nil {
			t.Fatal(err)
		}
	}

	expectValue := func(t *testing.T, ks BinaryKeyspace, k, expect string, expectRev Revision) {
		t.Helper()

		actual, rev, err := ks.Get(t.Context(), []byte(k))
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal([]byte(expect), actual) {
			t.Fatalf(
				"unexpected value, want %q, got %q",
				expect,
				string(actual),
			)
		}

		if rev != expectRev {
			t.Fatalf("unexpected revision: got %d, want %d", rev, expectRev)
		}
	}

	t.Run("Store", func(t *testing.T) {
		t.Parallel()

		t.Run("Open", func(t *testing.T) {
			t.Parallel()

			t.Run("allows keyspaces to be opened multiple times", func(t *testing.T) {
				t.Parallel()

				name := xtesting.SequentialName("keyspace")

				ks1, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer ks1.Close()

				ks2, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer ks2.Close()

				set(t, ks1, "<key>", "<value>", 0)
				expectValue(t, ks2, "<key>", "<value>", 1)
			})

			t.Run("isolates keyspaces with different names", func(t *testing.T) {
				t.Parallel()

				ks1 := setup(t)
				ks2 := setup(t)

				set(t, ks1, "<key>", "<value>", 0)
				expectValue(t, ks2, "<key>", "", 0)
			})
		})
	})

	t.Run("Keyspace", func(t *testing.T) {
		t.Parallel()

		t.Run("Get", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns an empty value and zero revision if the key doesn't exist", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)
				expectValue(t, ks, "<key>", "", 0)
			})

			t.Run("it returns an empty value and zero revision if the key has been deleted", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				set(t, ks, "<key>", "<value>", 0)

				if err := ks.Set(t.Context(), []byte("<key>"), nil, 1); err != nil {
					t.Fatal(err)
				}

				expectValue(t, ks, "<key>", "", 0)
			})

			t.Run("it returns the value and revision if the key exists", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				for i := range 5 {
					k := fmt.Sprintf("<key-%d>", i)

					for r := range Revision(i + 1) {
						set(t, ks, k, fmt.Sprintf("<value-%d-%d>", i, r), r)
					}
				}

				for i := range 5 {
					expectValue(
						t,
						ks,
						fmt.Sprintf("<key-%d>", i),
						fmt.Sprintf("<value-%d-%d>", i, i),
						Revision(i+1),
					)
				}
			})

			t.Run("it does not return its internal byte slice", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				set(t, ks, "<key>", "<value>", 0)

				v, _, err := ks.Get(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}

				v[0] = 'X'

				expectValue(t, ks, "<key>", "<value>", 1)
			})
		})

		t.Run("Set", func(t *testing.T) {
			t.Parallel()

			t.Run("it increments the revision", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				set(t, ks, "<key>", "<value-1>", 0)
				set(t, ks, "<key>", "<value-2>", 1)
				set(t, ks, "<key>", "<value-3>", 2)

				expectValue(t, ks, "<key>", "<value-3>", 3)
			})

			t.Run("it restarts the revision after the key is deleted", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				set(t, ks, "<key>", "<value>", 0)
				set(t, ks, "<key>", "", 1)
				set(t, ks, "<key>", "<value>", 0)

				expectValue(t, ks, "<key>", "<value>", 1)
			})

			t.Run("it allows deleting a key that does not exist", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				set(t, ks, "<key>", "", 0)
				expectValue(t, ks, "<key>", "", 0)
			})

			t.Run("it returns a conflict error if the key already exists and the revision is zero", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				set(t, ks, "<key>", "<value>", 0)

				err := ks.Set(t.Context(), []byte("<key>"), []byte("<other>"), 0)
				if !IsConflict(err) {
					t.Fatalf("expected a conflict error, got %v", err)
				}

				expectValue(t, ks, "<key>", "<value>", 1)
			})

			t.Run("it returns a conflict error if the revision is stale", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				set(t, ks, "<key>", "<value-1>", 0)
				set(t, ks, "<key>", "<value-2>", 1)

				err := ks.Set(t.Context(), []byte("<key>"), []byte("<other>"), 1)
				if !IsConflict(err) {
					t.Fatalf("expected a conflict error, got %v", err)
				}

				expectValue(t, ks, "<key>", "<value-2>", 2)
			})

			t.Run("it returns a conflict error if the key does not exist and the revision is non-zero", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				err := ks.Set(t.Context(), []byte("<key>"), []byte("<value>"), 1)
				if !IsConflict(err) {
					t.Fatalf("expected a conflict error, got %v", err)
				}

				expectValue(t, ks, "<key>", "", 0)
			})

			t.Run("it returns a conflict error when deleting with a stale revision", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				set(t, ks, "<key>", "<value-1>", 0)
				set(t, ks, "<key>", "<value-2>", 1)

				err := ks.Set(t.Context(), []byte("<key>"), nil, 1)
				if !IsConflict(err) {
					t.Fatalf("expected a conflict error, got %v", err)
				}

				expectValue(t, ks, "<key>", "<value-2>", 2)
			})

			t.Run("it does not keep a reference to the key slice", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				k := []byte("<key>")

				if err := ks.Set(t.Context(), k, []byte("<value>"), 0); err != nil {
					t.Fatal(err)
				}

				k[0] = 'X'

				ok, err := ks.Has(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}

				if ok {
					t.Fatalf("unexpected key: %q", string(k))
				}

				expectValue(t, ks, "<key>", "<value>", 1)
			})

			t.Run("it does not keep a reference to the value slice", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				v := []byte("<value>")

				if err := ks.Set(t.Context(), []byte("<key>"), v, 0); err != nil {
					t.Fatal(err)
				}

				v[0] = 'X'

				expectValue(t, ks, "<key>", "<value>", 1)
			})
		})

		t.Run("Has", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns false if the key doesn't exist", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				ok, err := ks.Has(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected ok to be false")
				}
			})

			t.Run("it returns true if the key exists", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				set(t, ks, "<key>", "<value>", 0)

				ok, err := ks.Has(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected ok to be true")
				}
			})

			t.Run("it returns false if the key has been deleted", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				set(t, ks, "<key>", "<value>", 0)
				set(t, ks, "<key>", "", 1)

				ok, err := ks.Has(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected ok to be false")
				}
			})
		})
	})

	t.Run("property-based", func(t *testing.T) {
		t.Parallel()

		rapid.Check(t, func(t *rapid.T) {
			ctx := context.Background()

			ks, err := store.Open(ctx, xtesting.SequentialName("keyspace"))
			if err != nil {
				t.Fatal(err)
			}
			defer ks.Close()

			type entry struct {
				Value    []byte
				Revision Revision
			}

			nonEmpty := rapid.StringN(1, -1, -1)
			pairs := map[string]entry{}
			var keys []string

			t.Repeat(
				map[string]func(*rapid.T){
					"": func(t *rapid.T) {
						for _, k := range keys {
							v, r, err := ks.Get(ctx, []byte(k))
							if err != nil {
								t.Fatal(err)
							}

							expect := pairs[k]
							if !bytes.Equal(expect.Value, v) || expect.Revision != r {
								t.Fatalf(
									"unexpected entry for key %q: got (%q, %d), want (%q, %d)",
									k,
									string(v),
									r,
									string(expect.Value),
									expect.Revision,
								)
							}
						}
					},
					"Has": func(t *rapid.T) {
						k := nonEmpty.Draw(t, "key")

						ok, err := ks.Has(ctx, []byte(k))
						if err != nil {
							t.Fatal(err)
						}

						if _, expect := pairs[k]; ok != expect {
							t.Fatalf("unexpected has for key %q: got %t, want %t", k, ok, expect)
						}
					},
					"Set (insert)": func(t *rapid.T) {
						k := nonEmpty.Draw(t, "key")
						if _, ok := pairs[k]; ok {
							t.Skip("skip: key already exists")
						}

						v := []byte(nonEmpty.Draw(t, "value"))

						if err := ks.Set(ctx, []byte(k), v, 0); err != nil {
							t.Fatal(err)
						}

						pairs[k] = entry{v, 1}
						keys = append(keys, k)
					},
					"Set (replace)": func(t *rapid.T) {
						if len(keys) == 0 {
							t.Skip("skip: keyspace is empty")
						}

						k := rapid.SampledFrom(keys).Draw(t, "key")
						v := []byte(nonEmpty.Draw(t, "value"))
						e := pairs[k]

						if err := ks.Set(ctx, []byte(k), v, e.Revision); err != nil {
							t.Fatal(err)
						}

						pairs[k] = entry{v, e.Revision + 1}
					},
					"Set (conflict)": func(t *rapid.T) {
						if len(keys) == 0 {
							t.Skip("skip: keyspace is empty")
						}

						k := rapid.SampledFrom(keys).Draw(t, "key")
						e := pairs[k]
						r := Revision(rapid.Uint64Range(0, uint64(e.Revision)-1).Draw(t, "revision"))

						if err := ks.Set(ctx, []byte(k), []byte("<conflict>"), r); !IsConflict(err) {
							t.Fatalf("expected a conflict error, got %v", err)
						}
					},
					"Set (delete)": func(t *rapid.T) {
						if len(keys) == 0 {
							t.Skip("skip: keyspace is empty")
						}

						k := rapid.SampledFrom(keys).Draw(t, "key")

						if err := ks.Set(ctx, []byte(k), nil, pairs[k].Revision); err != nil {
							t.Fatal(err)
						}

						delete(pairs, k)
						keys = slices.DeleteFunc(
							keys,
							func(x string) bool {
								return x == k
							},
						)
					},
				},
			)
		})
	})
}
