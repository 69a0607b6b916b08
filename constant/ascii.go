package constant

// AsciiArtLogo is the banner displayed on the root help screen.
const AsciiArtLogo = `
   ▄████████ ██╗   ██╗██████╗ ██████╗  █████╗ ███████╗
  ███    ███ ██║   ██║██╔══██╗██╔══██╗██╔══██╗██╔════╝
  ███    ███ ██║   ██║██████╔╝██████╔╝███████║███████╗
  ███    ███ ██║   ██║██╔══██╗██╔══██╗██╔══██║╚════██║
  ████████▀  ╚██████╔╝██║  ██║██║  ██║██║  ██║███████║
              ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝
`
