package export

const gettingStarted = "## Getting Started\n\n" +
	"Install the dependencies and start the development server:\n\n" +
	"```bash\nnpm install\nnpm run dev\n```\n\n" +
	"Open [http://localhost:3000](http://localhost:3000) to see the result.\n\n" +
	"## Project Structure\n\n" +
	"- `/src/app` - pages and routes\n" +
	"- `/src/components` - reusable components\n\n" +
	"## Learn More\n\n"

const nextConfig = `/** @type {import('next').NextConfig} */
const nextConfig = {
  reactStrictMode: true,
}

module.exports = nextConfig
`

const tsconfig = `{
  "compilerOptions": {
    "target": "es5",
    "lib": ["dom", "dom.iterable", "esnext"],
    "allowJs": true,
    "skipLibCheck": true,
    "strict": true,
    "forceConsistentCasingInFileNames": true,
    "noEmit": true,
    "esModuleInterop": true,
    "module": "esnext",
    "moduleResolution": "node",
    "resolveJsonModule": true,
    "isolatedModules": true,
    "jsx": "preserve",
    "incremental": true,
    "plugins": [{ "name": "next" }],
    "paths": { "@/*": ["./src/*"] }
  },
  "include": ["next-env.d.ts", "**/*.ts", "**/*.tsx", ".next/types/**/*.ts"],
  "exclude": ["node_modules"]
}
`

const tailwindConfig = `import type { Config } from 'tailwindcss'

const config: Config = {
  content: [
    './src/pages/**/*.{js,ts,jsx,tsx,mdx}',
    './src/components/**/*.{js,ts,jsx,tsx,mdx}',
    './src/app/**/*.{js,ts,jsx,tsx,mdx}',
  ],
  theme: {
    extend: {},
  },
  plugins: [],
}
export default config
`

const postcssConfig = `module.exports = {
  plugins: {
    tailwindcss: {},
    autoprefixer: {},
  },
}
`

const gitignore = `/node_modules
/.next/
/out/
/build
/coverage
.DS_Store
*.pem
npm-debug.log*
.env*.local
*.tsbuildinfo
next-env.d.ts
`

const globalsCSS = `@tailwind base;
@tailwind components;
@tailwind utilities;

:root {
  --background: #f9fafb;
  --foreground: #111827;
  --primary: #3b82f6;
  --primary-hover: #2563eb;
}

@layer components {
  .btn-primary {
    @apply px-4 py-2 bg-primary text-white rounded-md hover:bg-primary-hover transition-colors;
  }

  .card {
    @apply bg-white rounded-lg shadow-sm p-6;
  }
}
`
