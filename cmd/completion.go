// Package cmd provides CLI utilities for bootforge.
package cmd

import (
	"fmt"
	"strings"
)

// Commands available in bootforge.
var commands = []string{
	"bootstrap",
	"sbom",
	"cache",
	"completion",
	"help",
}

// getCommandDescription returns a short description for a command.
func getCommandDescription(cmd string) string {
	descriptions := map[string]string{
		"bootstrap":  "Fetch a repo, install dependencies, write a project tree",
		"sbom":       "Generate a CycloneDX or SPDX bill of materials",
		"cache":      "Inspect or clear the project snapshot cache",
		"completion": "Generate shell completion script",
		"help":       "Show help information",
	}
	if desc, ok := descriptions[cmd]; ok {
		return desc
	}
	return ""
}

// GenerateBashCompletion generates bash completion script.
func GenerateBashCompletion() string {
	return fmt.Sprintf(`# bash completion for bootforge
_bootforge_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    # Commands
    opts="%s"

    # Command-specific options
    case "${prev}" in
        bootstrap)
            opts="--dest --skip-install --include-dev --include-optional --no-workspaces --prefer-published-workspaces --no-transform --no-transform-project-sources --registry --cache-dir --cache-mode --no-cache --json --quiet --yes"
            ;;
        sbom)
            opts="--format --registry --cache-dir --no-cache --json --quiet"
            ;;
        cache)
            opts="clear stat"
            ;;
        completion)
            opts="bash zsh fish powershell"
            ;;
    esac

    COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
    return 0
}

complete -F _bootforge_completions bootforge
`, strings.Join(commands, " "))
}

// GenerateZshCompletion generates zsh completion script.
func GenerateZshCompletion() string {
	cmdList := make([]string, len(commands))
	for i, cmd := range commands {
		desc := getCommandDescription(cmd)
		cmdList[i] = fmt.Sprintf("    '%s:%s'", cmd, desc)
	}

	return fmt.Sprintf(`#compdef bootforge

_bootforge() {
    local -a commands
    commands=(
%s
    )

    _arguments -C \
        '1: :->command' \
        '*::arg:->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                bootstrap)
                    _arguments \
                        '--dest=[Destination VFS path]' \
                        '--skip-install[Skip dependency install]' \
                        '--include-dev[Include devDependencies]' \
                        '--include-optional[Include optionalDependencies]' \
                        '--no-workspaces[Do not traverse workspace packages]' \
                        '--prefer-published-workspaces[Resolve workspace refs from the registry]' \
                        '--no-transform[Skip the source transformer]' \
                        '--no-transform-project-sources[Skip transforming repo-local sources]' \
                        '--registry=[JSON fixture registry]' \
                        '--cache-dir=[Persistent cache directory]' \
                        '--cache-mode=[default|refresh|bypass]' \
                        '--no-cache[Disable snapshot cache]' \
                        '--json[JSON output]' \
                        '--quiet[Minimal output]' \
                        '--yes[Auto-approve prompts]'
                    ;;
                sbom)
                    _arguments \
                        '--format=[cyclonedx or spdx]' \
                        '--registry=[JSON fixture registry]' \
                        '--cache-dir=[Persistent cache directory]' \
                        '--no-cache[Disable snapshot cache]' \
                        '--json[JSON output]' \
                        '--quiet[Minimal output]'
                    ;;
                cache)
                    _values 'subcommand' 'clear[Clear the snapshot cache]' 'stat[Report cache size]'
                    ;;
                completion)
                    _values 'shell' 'bash' 'zsh' 'fish' 'powershell'
                    ;;
            esac
            ;;
    esac
}

_bootforge
`, strings.Join(cmdList, "\n"))
}

// GenerateFishCompletion generates fish completion script.
func GenerateFishCompletion() string {
	var completions []string

	for _, cmd := range commands {
		desc := getCommandDescription(cmd)
		completions = append(completions, fmt.Sprintf("complete -c bootforge -f -n '__fish_use_subcommand' -a '%s' -d '%s'", cmd, desc))
	}

	completions = append(completions, "# bootstrap command flags")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l dest -d 'Destination VFS path' -r")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l skip-install -d 'Skip dependency install'")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l include-dev -d 'Include devDependencies'")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l include-optional -d 'Include optionalDependencies'")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l no-workspaces -d 'Do not traverse workspace packages'")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l prefer-published-workspaces -d 'Resolve workspace refs from the registry'")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l no-transform -d 'Skip the source transformer'")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l registry -d 'JSON fixture registry' -r")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l cache-dir -d 'Persistent cache directory' -r")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l json -d 'JSON output'")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from bootstrap' -l yes -d 'Auto-approve prompts'")

	completions = append(completions, "# sbom command flags")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from sbom' -l format -f -a 'cyclonedx spdx'")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from sbom' -l registry -d 'JSON fixture registry' -r")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from sbom' -l json -d 'JSON output'")

	completions = append(completions, "# cache subcommands")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from cache' -f -a 'clear stat'")

	completions = append(completions, "# completion command shells")
	completions = append(completions, "complete -c bootforge -n '__fish_seen_subcommand_from completion' -f -a 'bash zsh fish powershell'")

	return strings.Join(completions, "\n")
}

// GeneratePowerShellCompletion generates PowerShell completion script.
func GeneratePowerShellCompletion() string {
	cmdArray := make([]string, len(commands))
	for i, cmd := range commands {
		cmdArray[i] = fmt.Sprintf("'%s'", cmd)
	}

	return fmt.Sprintf(`# PowerShell completion for bootforge
Register-ArgumentCompleter -Native -CommandName bootforge -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $commands = @(%s)

    $line = $commandAst.ToString()
    $tokens = $line.Split(' ')

    if ($tokens.Count -eq 2) {
        $commands | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
        }
    }
    elseif ($tokens.Count -gt 2) {
        $subcommand = $tokens[1]

        switch ($subcommand) {
            'bootstrap' {
                @('--dest', '--skip-install', '--include-dev', '--include-optional', '--no-workspaces', '--prefer-published-workspaces', '--no-transform', '--registry', '--cache-dir', '--cache-mode', '--no-cache', '--json', '--quiet', '--yes') |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
            'sbom' {
                @('--format', '--registry', '--cache-dir', '--no-cache', '--json', '--quiet') |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
            'cache' {
                @('clear', 'stat') |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
            'completion' {
                @('bash', 'zsh', 'fish', 'powershell') |
                    Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                    }
            }
        }
    }
}
`, strings.Join(cmdArray, ", "))
}
