// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package text_test

import (
	"context"
	"fmt"

	"github.com/walteh/incwatch/pkg/text"
)

func ExampleMatcher_ReplaceIncludes() {
	m := text.MustMatcher(text.DefaultIncludePattern)

	content := []byte("#include \"a.h\"\n#include <vector>\n")

	result := m.ReplaceIncludes(context.Background(), content, func(literal string) (string, error) {
		return "inc/" + literal, nil
	})

	fmt.Printf("Modified: %v\n", result.WasModified)
	fmt.Printf("Count: %d\n", result.ReplacementCount)
	fmt.Print(string(result.ModifiedContent))

	// Output:
	// Modified: true
	// Count: 1
	// #include "inc/a.h"
	// #include <vector>
}
